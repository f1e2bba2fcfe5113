package metrics

import (
	"github.com/cuemby/terminator/pkg/types"
)

// CompileStats describes the shape of one compiled graph
type CompileStats struct {
	Sites       int
	Pools       int
	SharedPools int // Pools referenced by more than one site
	Resources   map[types.ResourceKind]int
}

var resourceKinds = []types.ResourceKind{
	types.ResourceKindFile,
	types.ResourceKindSite,
	types.ResourceKindFirewall,
	types.ResourceKindInclude,
}

// Publish sets the graph gauges from s. Kinds absent from the graph are
// reported as zero so a previous run's values never linger.
func (s CompileStats) Publish() {
	SitesTotal.Set(float64(s.Sites))

	for _, kind := range resourceKinds {
		ResourcesTotal.WithLabelValues(string(kind)).Set(float64(s.Resources[kind]))
	}

	UpstreamPoolsTotal.WithLabelValues("true").Set(float64(s.SharedPools))
	UpstreamPoolsTotal.WithLabelValues("false").Set(float64(s.Pools - s.SharedPools))
}

// RecordLookup counts one secret store lookup
func RecordLookup(err error) {
	if err != nil {
		SecretLookupsTotal.WithLabelValues("error").Inc()
		return
	}
	SecretLookupsTotal.WithLabelValues("success").Inc()
}
