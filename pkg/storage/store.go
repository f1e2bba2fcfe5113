package storage

import (
	"errors"
	"time"
)

var (
	// ErrKeyNotFound is returned when no value is stored under a key
	ErrKeyNotFound = errors.New("key not found")
	// ErrSealed is returned when a sealed value is read without a key
	ErrSealed = errors.New("value is sealed and no key was given")
)

// Entry describes one stored value without exposing it
type Entry struct {
	Key       string    `json:"key" yaml:"key"`
	Sealed    bool      `json:"sealed" yaml:"sealed"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Store defines the interface for pillar value storage
type Store interface {
	Get(key string) (any, error)
	Set(key string, value any) error
	Delete(key string) error
	List() ([]Entry, error)

	// Lookup serves as a pillar.LookupFunc
	Lookup(reference string) (any, error)

	Close() error
}
