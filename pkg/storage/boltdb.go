package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cuemby/terminator/pkg/log"
	"github.com/cuemby/terminator/pkg/metrics"
	"github.com/cuemby/terminator/pkg/pillar"
	"github.com/cuemby/terminator/pkg/security"
	"github.com/rs/zerolog"
	bolt "go.etcd.io/bbolt"
	"gopkg.in/yaml.v3"
)

// DatabaseFile is the file name of the store inside its data directory
const DatabaseFile = "terminator.db"

var bucketPillar = []byte("pillar")

// record is the on-disk form of one value. Data holds the YAML encoding
// of the value, sealed when Sealed is set.
type record struct {
	Sealed    bool      `json:"sealed"`
	Data      []byte    `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db     *bolt.DB
	sealer *security.Sealer
	logger zerolog.Logger
}

// NewBoltStore opens or creates the store in dataDir. With a non-nil
// sealer, new values are sealed and sealed values can be read back.
func NewBoltStore(dataDir string, sealer *security.Sealer) (*BoltStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketPillar); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketPillar, err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{
		db:     db,
		sealer: sealer,
		logger: log.WithComponent("storage"),
	}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Set stores value under key, replacing any previous value
func (s *BoltStore) Set(key string, value any) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}

	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}

	rec := record{Data: data, UpdatedAt: time.Now().UTC()}
	if s.sealer != nil {
		sealed, err := s.sealer.Seal(data)
		if err != nil {
			return fmt.Errorf("failed to seal value: %w", err)
		}
		rec.Sealed = true
		rec.Data = sealed
	}

	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPillar).Put([]byte(key), encoded)
	})
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Bool("sealed", rec.Sealed).Msg("Stored value")
	return nil
}

// Get returns the value stored under key
func (s *BoltStore) Get(key string) (any, error) {
	var rec record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketPillar).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}

	data := rec.Data
	if rec.Sealed {
		if s.sealer == nil {
			return nil, fmt.Errorf("%w: %s", ErrSealed, key)
		}
		data, err = s.sealer.Open(rec.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", key, err)
		}
	}

	value, err := pillar.DecodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return value, nil
}

// Delete removes the value stored under key
func (s *BoltStore) Delete(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPillar)
		if b.Get([]byte(key)) == nil {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return b.Delete([]byte(key))
	})
	if err != nil {
		return err
	}

	s.logger.Debug().Str("key", key).Msg("Deleted value")
	return nil
}

// List returns every stored key in byte order
func (s *BoltStore) List() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPillar).ForEach(func(k, v []byte) error {
			var rec record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("failed to unmarshal %s: %w", k, err)
			}
			entries = append(entries, Entry{
				Key:       string(k),
				Sealed:    rec.Sealed,
				UpdatedAt: rec.UpdatedAt,
			})
			return nil
		})
	})
	return entries, err
}

// Lookup returns the value for a pillar reference and counts the attempt
func (s *BoltStore) Lookup(reference string) (any, error) {
	value, err := s.Get(reference)
	metrics.RecordLookup(err)
	if err != nil {
		s.logger.Debug().Err(err).Str("reference", reference).Msg("Lookup failed")
		return nil, err
	}
	return value, nil
}

var _ Store = (*BoltStore)(nil)
