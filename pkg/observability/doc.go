/*
Package observability turns engine lifecycle hooks into Prometheus metrics.

	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)
	driver, _ := runner.NewDriver(axis, sink, limits,
		runner.WithLifecycleHooks(metrics.Hooks()))
*/
package observability
