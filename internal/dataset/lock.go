package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// ErrLocked indicates another run holds the dataset lock. Concurrent runs
// against the same dataset are unsupported; the second one fails fast.
var ErrLocked = errors.New("dataset is locked by another run")

// Lock takes an exclusive lock on the dataset by creating a sibling .lock
// file. It returns a release func that removes the lock. If the lock file
// already exists the dataset is in use (or a crashed run left the lock
// behind for the operator to remove) and Lock fails with ErrLocked.
func (s *Store) Lock() (func(), error) {
	lockPath := s.Path + ".lock"

	if err := os.MkdirAll(filepath.Dir(lockPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory: %w", err)
	}

	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600) //nolint:gosec // Path derives from the configured dataset path
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, lockPath)
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	_, _ = f.WriteString(strconv.Itoa(os.Getpid()))
	f.Close()

	return func() {
		os.Remove(lockPath)
	}, nil
}
