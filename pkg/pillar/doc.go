/*
Package pillar holds the nested configuration tree the terminator compiles
from, and the transforms that operate on it.

A pillar is a YAML (or JSONC) document decoded into an insertion-ordered
*Map. Values are a small tagged union walked with type switches:

	scalar    string, int, float64, bool, nil
	sequence  []any
	mapping   *Map

# Secret references

Any key ending in "_pillar" names a value kept in an external store
instead of the document itself:

	example.com:
	  cert_pillar: tls:example.com:cert

Resolve walks a map and swaps those keys for their stripped names bound
to looked-up values. Lists of references are resolved one element at a
time:

	resolved, err := pillar.Resolve(m, store.Lookup)

The compiler never calls Resolve itself. References in certificate fields
are carried into the resource graph untouched, and the state engine that
applies the graph resolves them at apply time.

# Layered overrides

Merge folds a sequence of overlays, lowest precedence first. The header,
error page and rate limit zone layers all go through it.
*/
package pillar
