// Package store persists generated contour sets in a bbolt database,
// so a restarted daemon does not recontour tiles it has already seen.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotblauer/elevd/types/contour"
	"go.etcd.io/bbolt"
)

var contoursBucket = []byte("contours")

type Store struct {
	DB *bbolt.DB
}

// Open opens (creating if needed) the contour database at path.
func Open(path string, readOnly bool) (*Store, error) {
	if !readOnly {
		if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
			return nil, err
		}
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{ReadOnly: readOnly})
	if err != nil {
		return nil, fmt.Errorf("open contour store %s: %w", path, err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// Get returns the stored features for key. The bool is false on a miss.
func (s *Store) Get(key string) ([]contour.Feature, bool, error) {
	var data []byte
	err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(contoursBucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, false, err
	}
	var features []contour.Feature
	if err := json.Unmarshal(data, &features); err != nil {
		return nil, false, fmt.Errorf("decode contours %s: %w", key, err)
	}
	return features, true, nil
}

func (s *Store) Put(key string, features []contour.Feature) error {
	if key == "" {
		return errors.New("store: empty key")
	}
	if features == nil {
		features = []contour.Feature{}
	}
	data, err := json.Marshal(features)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(contoursBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(key), data)
	})
}

// Len returns the number of stored contour sets.
func (s *Store) Len() int {
	n := 0
	_ = s.DB.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(contoursBucket); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n
}

// Clear drops every stored contour set.
func (s *Store) Clear() error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket(contoursBucket)
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}
