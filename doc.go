// Package boundedbuffer is a fixed-capacity, goroutine-safe FIFO buffer with
// backpressure, plus the tooling used to exercise it under load.
//
// # Layout
//
//	pkg/buffer     Bounded[T]: blocking, non-blocking and timed push/pop,
//	               statistics and optional Prometheus metrics
//	pkg/worker     worker pool whose queue is a Bounded[T]
//	pkg/retry      exponential backoff used by retrying producers
//	workload       concurrent producer/consumer runs with conservation,
//	               ordering and capacity checks
//	config         workload configuration (JSON/YAML, schema, env overrides)
//	metric         Prometheus registry and HTTP endpoint
//	errors         error classification shared by all packages
//	cmd/boundedbuf command-line runner for workload scenarios
//
// # Buffer
//
// Producers block when the buffer is full and consumers block when it is
// empty:
//
//	buf, err := buffer.New[string](1000)
//	if err != nil {
//		return err
//	}
//
//	go func() {
//		for _, line := range lines {
//			buf.Push(line)
//		}
//	}()
//
//	for {
//		line, ok := buf.TryPopFor(time.Second)
//		if !ok {
//			break // nothing arrived within a second
//		}
//		handle(line)
//	}
//
// Timed operations never fail for any reason other than the deadline; they
// report the outcome as a bool. Only construction returns errors.
//
// # Workloads
//
// The boundedbuf command runs named scenarios or workload files and prints a
// JSON report:
//
//	boundedbuf -list
//	boundedbuf -scenario=mpmc -metrics-port=9090
//	boundedbuf -config=workload.yaml -log-format=text
package boundedbuffer
