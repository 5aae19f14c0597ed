// Package redisdelegate is a reference backend for the delegated driver
// (spec §4.1/§4.9): it stores the canonical-binary-encoded keyring
// sequence under a single Redis key, using WATCH/MULTI for optimistic
// concurrency so a racing writer never silently clobbers a Store.
package redisdelegate

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/pandoracore/keyring/internal/driver"
)

const versionField = "v"
const dataField = "data"

// Backend wraps a Redis client around a single hash key holding the
// serialized keyring sequence plus a version counter.
type Backend struct {
	client *redis.Client
	key    string
	ctx    context.Context
}

// New connects a Backend to addr (e.g. "localhost:6379") storing state
// under key.
func New(ctx context.Context, addr, password string, db int, key string) *Backend {
	return &Backend{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		key:    key,
		ctx:    ctx,
	}
}

// Load implements driver.LoadFunc.
func (b *Backend) Load() ([]byte, error) {
	data, err := b.client.HGet(b.ctx, b.key, dataField).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redisdelegate: reading %s: %w", b.key, err)
	}
	return data, nil
}

// Store implements driver.StoreFunc with optimistic-lock versioning: it
// watches the key, rereads the version, and writes data and version+1
// in one transaction, which aborts with an error if another writer
// modifies the key between the WATCH and the EXEC. The version is not
// compared with anything read by an earlier Load.
func (b *Backend) Store(raw []byte) error {
	txf := func(tx *redis.Tx) error {
		version, err := tx.HGet(b.ctx, b.key, versionField).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		_, err = tx.TxPipelined(b.ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(b.ctx, b.key, dataField, raw)
			pipe.HSet(b.ctx, b.key, versionField, version+1)
			return nil
		})
		return err
	}

	if err := b.client.Watch(b.ctx, txf, b.key); err != nil {
		return fmt.Errorf("redisdelegate: storing %s: %w", b.key, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (b *Backend) Close() error {
	return b.client.Close()
}

// NewDriver builds a driver.Driver backed by this Backend's Load/Store
// callbacks, ready to pass to driver.Open via a Delegated Config.
func NewDriver(b *Backend) *driver.DelegatedDriver {
	return driver.NewDelegatedDriverWithCloser(b.Load, b.Store, b.Close)
}
