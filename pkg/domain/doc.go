/*
Package domain contains the core models of the bake task runner.

It defines task definitions, their runnable instances and the status
machine those instances move through, plus the error taxonomy shared by the
registry, the scheduler and the engine. The package performs no I/O; the
console and process runner a task body talks to are interfaces.

# Key Entities

  - Definition: a declared kind of work (name, parameters, requirements, body).
  - Instance: one parameter-bound occurrence of a Definition within a run.
  - Status: PENDING, RUNNING, then one of COMPLETED, FAILED or SKIPPED.
  - Context: what a task body receives (instance, runtime, resolved environment).
  - RunReport: the recorded outcome of a finished run.
*/
package domain
