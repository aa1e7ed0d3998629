package executor

import "github.com/prometheus/client_golang/prometheus"

// PromCollectors accumulates the prometheus collectors declared by this
// module's packages. Packages append their collectors here at init time
// rather than registering them directly, so that a single entry point (e.g.
// the cmd/batchrun CLI) controls when and whether they are registered
// against prometheus.DefaultRegisterer.
var PromCollectors []prometheus.Collector
