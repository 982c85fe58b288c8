/*
Package ports defines the driven ports (interfaces) of the bake engine.

These interfaces decouple the orchestration core from where run reports are
kept and how concurrent runs are coordinated.

# Key Interfaces

  - HistoryStore: persists the RunReport of every finished run (memory, file, redis).
  - RunLocker: serializes runs across replicas of a server.

Adapters verify themselves against the shared suite in package ports/tests.
*/
package ports
