// Package metrics defines Prometheus metrics for credential acquisition,
// covering acquisition outcomes per method, device code poll results and
// device code flow durations.
package metrics
