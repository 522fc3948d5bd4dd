// Package library keeps pristine copies of animations in a bbolt file so
// that edits such as rescaling can start from the original instead of
// compounding rounding loss.
package library

import (
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketOriginals = []byte("originals")

// ErrNotFound is returned when no original is stored under a name.
var ErrNotFound = errors.New("animation not found in library")

// Library is an open originals store.
type Library struct {
	db *bolt.DB
}

// Open opens or creates the library file at path.
func Open(path string) (*Library, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening library %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketOriginals)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing library %s: %w", path, err)
	}

	return &Library{db: db}, nil
}

// Close releases the library file.
func (l *Library) Close() error {
	return l.db.Close()
}

// Put stores data under name, replacing any previous entry.
func (l *Library) Put(name string, data []byte) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOriginals).Put([]byte(name), data)
	})
}

// Has reports whether an original is stored under name.
func (l *Library) Has(name string) (bool, error) {
	var found bool
	err := l.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketOriginals).Get([]byte(name)) != nil
		return nil
	})
	return found, err
}

// Get returns a copy of the data stored under name.
func (l *Library) Get(name string) ([]byte, error) {
	var data []byte
	err := l.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketOriginals).Get([]byte(name))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		// v is only valid inside the transaction.
		data = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// List returns the stored names in sorted order.
func (l *Library) List() ([]string, error) {
	var names []string
	err := l.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketOriginals).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	sort.Strings(names)
	return names, err
}
