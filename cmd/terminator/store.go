package main

import (
	"fmt"

	"github.com/cuemby/terminator/pkg/config"
	"github.com/cuemby/terminator/pkg/security"
	"github.com/cuemby/terminator/pkg/storage"
)

// openStore opens the configured pillar store. It returns nil without
// error when no store is configured and required is false.
func openStore(c config.StoreConfig, required bool) (*storage.BoltStore, error) {
	if c.DataDir == "" {
		if required {
			return nil, fmt.Errorf("no pillar store configured: set --store or store.data_dir")
		}
		return nil, nil
	}

	var sealer *security.Sealer
	if c.KeyFile != "" {
		var err error
		sealer, err = security.LoadKeyFile(c.KeyFile)
		if err != nil {
			return nil, err
		}
	}

	store, err := storage.NewBoltStore(c.DataDir, sealer)
	if err != nil {
		return nil, fmt.Errorf("failed to open pillar store: %w", err)
	}
	return store, nil
}
