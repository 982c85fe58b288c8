/*
Package observability turns engine lifecycle events into monitoring signals.

Metrics exports Prometheus counters and histograms for runs and tasks;
LoggingHooks writes one structured log record per event. Both return
domain.LifecycleHooks, which can be chained and passed to bake.WithLifecycleHooks.
*/
package observability
