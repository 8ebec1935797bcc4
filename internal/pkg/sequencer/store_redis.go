package sequencer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

var advanceScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  return 0
end
redis.call("SET", KEYS[1], ARGV[1])
return 1
`)

// RedisClient is the subset of *redis.Client used by RedisStore.
type RedisClient interface {
	redis.Scripter
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisStore keeps sequence records as plain Redis keys so several
// dispatcher processes can share them.
type RedisStore struct {
	rdb    RedisClient
	prefix string
}

// NewRedisStore stores records under keyPrefix+queue. An empty keyPrefix
// defaults to "seq:".
func NewRedisStore(rdb RedisClient, keyPrefix string) *RedisStore {
	keyPrefix = strings.TrimSpace(keyPrefix)
	if keyPrefix == "" {
		keyPrefix = "seq:"
	}
	return &RedisStore{rdb: rdb, prefix: keyPrefix}
}

func (s *RedisStore) key(queue string) string {
	return s.prefix + queue
}

func (s *RedisStore) Last(ctx context.Context, queue string) (int64, bool, error) {
	v, err := s.rdb.Get(ctx, s.key(queue)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("sequencer: redis get %s: %w", queue, err)
	}
	seq, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("sequencer: redis record %s: %w", queue, err)
	}
	return seq, true, nil
}

func (s *RedisStore) Advance(ctx context.Context, queue string, seq int64) (bool, error) {
	res, err := advanceScript.Run(ctx, s.rdb, []string{s.key(queue)}, seq).Result()
	if err != nil {
		return false, fmt.Errorf("sequencer: redis advance %s: %w", queue, err)
	}
	moved, err := scriptInt(res)
	if err != nil {
		return false, err
	}
	return moved == 1, nil
}

func scriptInt(res any) (int64, error) {
	switch v := res.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("sequencer: unexpected redis script result type %T", res)
	}
}
