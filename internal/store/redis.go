package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/conduit-lang/schemagen/internal/document"
)

// maxSaveAttempts bounds optimistic-lock retries in RedisStore.Save
const maxSaveAttempts = 5

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	// Addr is the Redis server address (host:port)
	Addr string
	// Password is the Redis password (optional)
	Password string
	// DB is the Redis database number
	DB int
	// Prefix is prepended to every key
	Prefix string
}

// DefaultRedisConfig returns a default Redis configuration
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:   "localhost:6379",
		Prefix: "schemagen:",
	}
}

// RedisStore keeps the history of each document in a Redis list and the
// document names of each kind in a set
type RedisStore struct {
	client *redis.Client
	prefix string
}

// redisRecord is the msgpack encoding of a Record
type redisRecord struct {
	ID        string    `msgpack:"id"`
	Kind      string    `msgpack:"kind"`
	Name      string    `msgpack:"name"`
	Version   int       `msgpack:"version"`
	Digest    string    `msgpack:"digest"`
	Payload   []byte    `msgpack:"payload"`
	CreatedAt time.Time `msgpack:"created_at"`
}

// OpenRedis connects to Redis and verifies the connection
func OpenRedis(ctx context.Context, config RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", config.Addr, err)
	}

	return NewRedisStore(client, config.Prefix), nil
}

// NewRedisStore creates a store on an existing client
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) historyKey(kind document.Kind, name string) string {
	return fmt.Sprintf("%sdoc:%s:%s", r.prefix, kind, name)
}

func (r *RedisStore) namesKey(kind document.Kind) string {
	return fmt.Sprintf("%snames:%s", r.prefix, kind)
}

// Save implements Store. The history list is watched so that concurrent
// writers never assign the same version twice.
func (r *RedisStore) Save(ctx context.Context, doc *document.Document) (*Record, bool, error) {
	rec, err := newRecord(doc, 0)
	if err != nil {
		return nil, false, err
	}
	key := r.historyKey(doc.Kind, doc.Name)

	var (
		result  *Record
		created bool
	)
	save := func(tx *redis.Tx) error {
		latest, err := r.index(ctx, tx, key, -1)
		switch {
		case errors.Is(err, redis.Nil):
			rec.Version = 1
		case err != nil:
			return err
		case latest.Digest == rec.Digest:
			result, created = latest, false
			return nil
		default:
			rec.Version = latest.Version + 1
		}

		data, err := encodeRecord(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, key, data)
			pipe.SAdd(ctx, r.namesKey(doc.Kind), doc.Name)
			return nil
		})
		if err != nil {
			return err
		}
		result, created = rec, true
		return nil
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		err = r.client.Watch(ctx, save, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to save %s %s: %w", doc.Kind, doc.Name, err)
	}
	return result, created, nil
}

// Latest implements Store
func (r *RedisStore) Latest(ctx context.Context, kind document.Kind, name string) (*Record, error) {
	rec, err := r.index(ctx, r.client, r.historyKey(kind, name), -1)
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound{Kind: kind, Name: name}
	}
	return rec, err
}

// Get implements Store
func (r *RedisStore) Get(ctx context.Context, kind document.Kind, name string, version int) (*Record, error) {
	if version < 1 {
		return nil, ErrNotFound{Kind: kind, Name: name, Version: version}
	}
	rec, err := r.index(ctx, r.client, r.historyKey(kind, name), int64(version-1))
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound{Kind: kind, Name: name, Version: version}
	}
	return rec, err
}

// List implements Store
func (r *RedisStore) List(ctx context.Context, kind document.Kind) ([]*Record, error) {
	names, err := r.client.SMembers(ctx, r.namesKey(kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s names: %w", kind, err)
	}
	sort.Strings(names)

	records := make([]*Record, 0, len(names))
	for _, name := range names {
		rec, err := r.Latest(ctx, kind, name)
		if IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close implements Store
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// lister is satisfied by both *redis.Client and *redis.Tx
type lister interface {
	LIndex(ctx context.Context, key string, index int64) *redis.StringCmd
}

func (r *RedisStore) index(ctx context.Context, c lister, key string, i int64) (*Record, error) {
	data, err := c.LIndex(ctx, key, i).Bytes()
	if err != nil {
		return nil, err
	}
	return decodeRecord(data)
}

func encodeRecord(rec *Record) ([]byte, error) {
	data, err := msgpack.Marshal(redisRecord{
		ID:        rec.ID.String(),
		Kind:      string(rec.Kind),
		Name:      rec.Name,
		Version:   rec.Version,
		Digest:    rec.Digest,
		Payload:   rec.Payload,
		CreatedAt: rec.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*Record, error) {
	var wire redisRecord
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	id, err := uuid.Parse(wire.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to decode record id: %w", err)
	}
	return &Record{
		ID:        id,
		Kind:      document.Kind(wire.Kind),
		Name:      wire.Name,
		Version:   wire.Version,
		Digest:    wire.Digest,
		Payload:   wire.Payload,
		CreatedAt: wire.CreatedAt.UTC(),
	}, nil
}
