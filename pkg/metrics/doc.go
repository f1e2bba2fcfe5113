/*
Package metrics provides Prometheus metrics for the terminator compiler.

All collectors are registered with the default Prometheus registry at
package init. The terminator runs as a one-shot command rather than a
long-lived server, so instead of an HTTP endpoint the registry is written
to a file for node_exporter's textfile collector:

	┌──────────────── METRICS FLOW ─────────────────┐
	│                                                 │
	│  compiler.Compile ──► CompilationsTotal         │
	│        │              CompileDuration           │
	│        └──► CompileStats.Publish()              │
	│               ResourcesTotal{kind}              │
	│               SitesTotal                        │
	│               UpstreamPoolsTotal{shared}        │
	│                                                 │
	│  storage.Lookup ──► SecretLookupsTotal{result}  │
	│                                                 │
	│  WriteTextfile(path) ──► *.prom file            │
	└─────────────────────────────────────────────────┘

# Metrics

Compilation:
  - terminator_compilations_total{result}: compilations by "success" or "error"
  - terminator_compile_duration_seconds: end to end compile latency

Graph (last successful compilation):
  - terminator_resources{kind}: resources per kind (file, site, firewall, include)
  - terminator_sites: number of sites
  - terminator_upstream_pools{shared}: pools used by one site ("false") or several ("true")

Secret store:
  - terminator_secret_lookups_total{result}: lookups by "success" or "error"

# Usage

Timing an operation:

	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.CompileDuration)

Exporting after a run:

	if err := metrics.WriteTextfile("/var/lib/node_exporter/terminator.prom"); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}

WriteTextfile writes to a temporary file and renames it into place, so
the collector never reads a partial file.
*/
package metrics
