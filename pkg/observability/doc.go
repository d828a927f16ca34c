/*
Package observability turns dispatcher and orchestrator lifecycle hooks into
Prometheus metrics and structured log lines.

Metrics are registered on an injected prometheus.Registerer, so several
instances can coexist in tests.
*/
package observability
