// Package metric provides the Prometheus registry and HTTP endpoint used to
// observe bounded buffers, worker pools and workload runs.
//
// # Architecture
//
//  1. Core Metrics: workload-level metrics registered automatically (Metrics type)
//  2. Component Registry: keyed registration for per-component collectors (MetricsRegistrar)
//  3. HTTP Server: /metrics in Prometheus format plus /health (Server type)
//
// Components register their collectors under a component name so that two
// buffers with different names can coexist in one registry while a second
// registration of the same component/metric pair is rejected with an
// ErrorInvalid classified error.
//
// # Basic Usage
//
//	registry := metric.NewMetricsRegistry()
//
//	buf, err := buffer.New[int](1000, buffer.WithMetrics[int](registry, "ingest"))
//	if err != nil {
//	    return err
//	}
//
//	server := metric.NewServer(9090, "/metrics", registry)
//	if err := server.Start(); err != nil {
//	    return err
//	}
//	defer server.Stop()
//
// # Core Metrics
//
//   - boundedbuf_workload_runs_total{scenario,result}
//   - boundedbuf_workload_items_total{scenario,direction}
//   - boundedbuf_workload_timeouts_total{scenario,operation}
//   - boundedbuf_workload_duration_seconds{scenario}
//   - boundedbuf_workload_violations_total{scenario,kind}
package metric
