// Package metrics provides operational metrics collection.
//
// Collectors register with the default Prometheus registry on import and are
// served by the rooms HTTP listener at /metrics.
//
// # Metric Categories
//
//   - HTTP: request counts by route and status, latency histograms by route
//   - Commands: membership command outcomes by command and error code
//   - Concurrency: version conflicts absorbed by the retry loop
//   - Cascade: deletion steps and recovery sweeps
package metrics
