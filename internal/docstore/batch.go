package docstore

import (
	"context"
	"database/sql"
	"fmt"
)

type batchOp struct {
	ref     *DocumentRef
	data    any
	options setOptions
	delete  bool
}

// WriteBatch collects writes that commit together or not at all
type WriteBatch struct {
	store *Store
	ops   []batchOp
	err   error
}

// Batch starts a new write batch
func (s *Store) Batch() *WriteBatch {
	return &WriteBatch{store: s}
}

// Set queues a write of data to ref
func (b *WriteBatch) Set(ref *DocumentRef, data any, opts ...SetOption) *WriteBatch {
	if err := ref.validate(); err != nil && b.err == nil {
		b.err = err
	}

	var options setOptions
	for _, opt := range opts {
		opt(&options)
	}

	b.ops = append(b.ops, batchOp{ref: ref, data: data, options: options})
	return b
}

// Delete queues removal of ref
func (b *WriteBatch) Delete(ref *DocumentRef) *WriteBatch {
	if err := ref.validate(); err != nil && b.err == nil {
		b.err = err
	}
	b.ops = append(b.ops, batchOp{ref: ref, delete: true})
	return b
}

// Len returns the number of queued writes
func (b *WriteBatch) Len() int {
	return len(b.ops)
}

// Commit applies every queued write in a single transaction
func (b *WriteBatch) Commit(ctx context.Context) error {
	if b.err != nil {
		return b.err
	}
	if len(b.ops) == 0 {
		return nil
	}

	err := b.store.db.Transaction(ctx, func(tx *sql.Tx) error {
		for _, op := range b.ops {
			if op.delete {
				if err := b.store.delete(ctx, tx, op.ref); err != nil {
					return err
				}
				continue
			}
			if err := b.store.set(ctx, tx, op.ref, op.data, op.options); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit batch of %d writes: %w", len(b.ops), err)
	}

	b.store.logger.Debug("Committed write batch", "writes", len(b.ops))
	return nil
}
