// Package config loads and validates workload configuration.
//
// A Config describes one run of the workload harness: the buffer capacity,
// how many producers and consumers to start, which buffer calls they use
// (blocking, non-blocking, timed or retrying), the timed-wait bounds, a run
// timeout, optional post-run expectations and the metrics and logging setup.
//
// # Loading
//
// Loader starts from Default (or a base set with WithBase), merges each
// layer file over it, validates the merged document against an embedded
// JSON Schema, decodes it, applies BOUNDEDBUF_* environment overrides and
// finally runs Config.Validate:
//
//	loader := config.NewLoader()
//	loader.AddLayer("configs/base.yaml")
//	loader.AddLayer("configs/ci.json") // overrides base
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Layers may be JSON (.json) or YAML (.yaml, .yml). Files are read through
// the same guards for both formats: path traversal is rejected, files larger
// than 10MB are refused and nesting deeper than 100 levels is an error.
//
// Durations are written as strings ("250ms", "1m", "2d"); bare integers are
// nanoseconds.
//
// # Environment Overrides
//
//	BOUNDEDBUF_NAME, BOUNDEDBUF_CAPACITY, BOUNDEDBUF_PRODUCERS, BOUNDEDBUF_ITEMS,
//	BOUNDEDBUF_CONSUMERS, BOUNDEDBUF_PUSH_MODE, BOUNDEDBUF_POP_MODE,
//	BOUNDEDBUF_PUSH_TIMEOUT, BOUNDEDBUF_POP_TIMEOUT, BOUNDEDBUF_RUN_TIMEOUT,
//	BOUNDEDBUF_METRICS_ENABLED, BOUNDEDBUF_METRICS_PORT,
//	BOUNDEDBUF_LOG_LEVEL, BOUNDEDBUF_LOG_FORMAT
//
// Validation errors are ErrorInvalid classified errors wrapping
// errors.ErrInvalidConfig.
package config
