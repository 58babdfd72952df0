/*
Package observability turns panel lifecycle hooks into metrics and structured logs.

Metrics registers Prometheus collectors and exposes them as domain.LifecycleHooks, so
the interaction machine stays unaware of the metrics backend. LoggingHooks does the same
for slog. Both can be merged with domain.LifecycleHooks.Merge.
*/
package observability
