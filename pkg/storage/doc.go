/*
Package storage keeps the values that _pillar references point at.

Values live in a single BoltDB bucket keyed by reference string:

	<dataDir>/terminator.db
	└── pillar/
	    ├── "certs/example.com/cert"  → record
	    ├── "certs/example.com/key"   → record
	    └── ...

Each record is JSON holding the YAML encoding of the value, so scalars,
lists and ordered mappings all survive a round trip. When the store is
opened with a security.Sealer, values written are sealed and values read
are opened; reading a sealed value without a sealer fails with ErrSealed.

BoltStore.Lookup has the shape of pillar.LookupFunc and is what the
resolver calls:

	store, err := storage.NewBoltStore("/var/lib/terminator", sealer)
	if err != nil {
		return err
	}
	defer store.Close()

	resolved, err := pillar.Resolve(m, store.Lookup)

Every lookup is counted in terminator_secret_lookups_total. A missing
reference returns an error wrapping ErrKeyNotFound.

BoltDB takes an exclusive file lock, so only one process may hold the
store open. Opening waits at most one second for the lock.
*/
package storage
