package store

import (
	"context"
	"fmt"

	redis "github.com/go-redis/redis/v8"
	apperrors "github.com/leeforge/essentials/errors"
	"github.com/leeforge/essentials/json"
)

// DefaultRedisKey is the hash holding install states.
const DefaultRedisKey = "essentials:install-state"

// RedisStore keeps install states as fields of a single Redis hash.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

// NewRedisStore creates a store on the given hash key.
func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context, pluginID string) (Record, error) {
	raw, err := s.client.HGet(ctx, s.key, pluginID).Result()
	if err == redis.Nil {
		return Record{}, notFound(pluginID)
	}
	if err != nil {
		return Record{}, apperrors.Wrap(err, apperrors.ErrorTypeExternal, "redis hget")
	}
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return Record{}, fmt.Errorf("decode %s: %w", pluginID, err)
	}
	return rec, nil
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	if rec.PluginID == "" {
		return apperrors.NewValidation("record without plugin id")
	}
	data, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", rec.PluginID, err)
	}
	if err := s.client.HSet(ctx, s.key, rec.PluginID, data).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrorTypeExternal, "redis hset")
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Record, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrorTypeExternal, "redis hgetall")
	}
	records := make([]Record, 0, len(all))
	for id, raw := range all {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", id, err)
		}
		records = append(records, rec)
	}
	sortRecords(records)
	return records, nil
}
