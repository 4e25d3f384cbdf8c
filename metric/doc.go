// Package metric collects run metrics in a private Prometheus registry.
//
// A target run is a batch job with no listening port, so metrics are not
// scraped. When metrics_file is configured the registry is written once at
// the end of the run in the text exposition format:
//
//	reg := metric.NewMetricsRegistry()
//	reg.Metrics.RecordMessage("RECORD")
//	...
//	if err := reg.WriteTextfile("/var/lib/node_exporter/singer.prom"); err != nil {
//	    logger.Warn("Failed to write metrics", "error", err)
//	}
package metric
