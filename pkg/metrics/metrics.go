package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Compilation metrics
	CompilationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terminator_compilations_total",
			Help: "Total number of pillar compilations by result",
		},
		[]string{"result"},
	)

	CompileDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "terminator_compile_duration_seconds",
			Help:    "Time taken to compile a pillar in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Graph metrics, describing the last successful compilation
	ResourcesTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "terminator_resources",
			Help: "Number of resources in the compiled graph by kind",
		},
		[]string{"kind"},
	)

	SitesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "terminator_sites",
			Help: "Number of sites in the compiled graph",
		},
	)

	UpstreamPoolsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "terminator_upstream_pools",
			Help: "Number of upstream pools, split by whether more than one site uses them",
		},
		[]string{"shared"},
	)

	// Secret store metrics
	SecretLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terminator_secret_lookups_total",
			Help: "Total number of secret store lookups by result",
		},
		[]string{"result"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(CompilationsTotal)
	prometheus.MustRegister(CompileDuration)
	prometheus.MustRegister(ResourcesTotal)
	prometheus.MustRegister(SitesTotal)
	prometheus.MustRegister(UpstreamPoolsTotal)
	prometheus.MustRegister(SecretLookupsTotal)
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for collection by node_exporter's textfile collector
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
