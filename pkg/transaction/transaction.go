// Package transaction provides transactional object writes with rollback on failure.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bigneek/primeflare/pkg/storage"
)

type undoEntry struct {
	data    []byte
	existed bool
}

// Txn tracks object writes and can revert them on Rollback.
type Txn struct {
	store  storage.ObjectStore
	bucket string
	prefix string // e.g. reports/

	// undo: full key -> content before the first Put
	undo   map[string]undoEntry
	mu     sync.Mutex
	active bool
}

// New creates a transaction scoped to the given prefix.
func New(store storage.ObjectStore, bucket, prefix string) *Txn {
	return &Txn{
		store:  store,
		bucket: bucket,
		prefix: prefix,
		undo:   make(map[string]undoEntry),
		active: true,
	}
}

// Put records a write. On Rollback, the original value is restored.
func (t *Txn) Put(ctx context.Context, key string, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return errors.New("transaction: put after commit or rollback")
	}
	fullKey := t.prefix + key
	if _, ok := t.undo[fullKey]; !ok {
		orig, err := t.store.DownloadObject(ctx, t.bucket, fullKey)
		switch {
		case err == nil:
			t.undo[fullKey] = undoEntry{data: orig, existed: true}
		case errors.Is(err, storage.ErrNotFound):
			t.undo[fullKey] = undoEntry{}
		default:
			return fmt.Errorf("transaction: snapshot %s: %w", fullKey, err)
		}
	}
	return t.store.UploadObject(ctx, t.bucket, fullKey, data)
}

// Rollback reverts all writes in this transaction. Every key is attempted;
// failures are joined into the returned error.
func (t *Txn) Rollback(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return nil
	}
	t.active = false
	var errs []error
	for fullKey, orig := range t.undo {
		var err error
		if orig.existed {
			err = t.store.UploadObject(ctx, t.bucket, fullKey, orig.data)
		} else {
			err = t.store.DeleteObject(ctx, t.bucket, fullKey)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	t.undo = nil
	return errors.Join(errs...)
}

// Commit marks the transaction complete (no rollback needed).
func (t *Txn) Commit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.undo = nil
}
