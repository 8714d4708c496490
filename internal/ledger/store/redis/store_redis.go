package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"custody/internal/ledger/models"
	"custody/internal/ledger/ports"
	"custody/pkg/platform/sentinel"
)

// keyPrefix carries a hash tag so every record lands in one cluster slot and
// multi-record commits stay valid for the script.
const keyPrefix = "{custody}:"

// commitScript checks every expected version before writing any record.
// ARGV holds (version, data) pairs in KEYS order. Returns 0 on success or the
// 1-based index of the first stale key.
var commitScript = redis.NewScript(`
for i, key in ipairs(KEYS) do
	local current = tonumber(redis.call('HGET', key, 'version') or '0')
	if current ~= tonumber(ARGV[i * 2 - 1]) then
		return i
	end
end
for i, key in ipairs(KEYS) do
	redis.call('HSET', key, 'version', tonumber(ARGV[i * 2 - 1]) + 1, 'data', ARGV[i * 2])
end
return 0
`)

// RedisRecordStore keeps each record in a hash {version, data}.
type RedisRecordStore struct {
	client redis.UniversalClient
}

// New constructs a Redis-backed record store.
func New(client redis.UniversalClient) *RedisRecordStore {
	return &RedisRecordStore{client: client}
}

func redisKey(key models.RecordKey) string {
	return keyPrefix + string(key)
}

func (s *RedisRecordStore) Get(ctx context.Context, key models.RecordKey) (*ports.Record, error) {
	vals, err := s.client.HMGet(ctx, redisKey(key), "version", "data").Result()
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", key, err)
	}
	if len(vals) != 2 || vals[0] == nil {
		return nil, sentinel.ErrNotFound
	}

	versionStr, ok := vals[0].(string)
	if !ok {
		return nil, fmt.Errorf("record %s: unexpected version type %T", key, vals[0])
	}
	version, err := strconv.ParseUint(versionStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("record %s: parse version: %w", key, err)
	}
	data, _ := vals[1].(string)

	return &ports.Record{Key: key, Version: version, Data: []byte(data)}, nil
}

func (s *RedisRecordStore) Commit(ctx context.Context, records []ports.Record) error {
	if len(records) == 0 {
		return nil
	}

	keys := make([]string, 0, len(records))
	args := make([]any, 0, 2*len(records))
	seen := make(map[models.RecordKey]struct{}, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.Key]; dup {
			return fmt.Errorf("record %s appears twice in commit", rec.Key)
		}
		seen[rec.Key] = struct{}{}
		keys = append(keys, redisKey(rec.Key))
		args = append(args, rec.Version, rec.Data)
	}

	stale, err := commitScript.Run(ctx, s.client, keys, args...).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("commit records: %w", err)
	}
	if stale > 0 {
		rec := records[stale-1]
		return fmt.Errorf("record %s not at version %d: %w", rec.Key, rec.Version, sentinel.ErrConflict)
	}
	return nil
}
