package devserver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps tasks in Redis: one hash per task and a sorted set
// ordering ids by a monotonically increasing sequence.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisStore uses rdb with keys under prefix, "todoask" when empty.
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "todoask"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// OpenRedisStore connects to a redis:// URL.
func OpenRedisStore(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cannot connect to redis: %w", err)
	}
	return NewRedisStore(rdb, ""), nil
}

func (s *RedisStore) orderKey() string { return s.prefix + ":tasks" }

func (s *RedisStore) seqKey() string { return s.prefix + ":tasks:seq" }

func (s *RedisStore) taskKey(id string) string { return s.prefix + ":task:" + id }

// List returns every task.
func (s *RedisStore) List(ctx context.Context) ([]Task, error) {
	ids, err := s.rdb.ZRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	pipe := s.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.taskKey(id))
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to load tasks: %w", err)
		}
	}

	out := make([]Task, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		completed, _ := strconv.ParseBool(fields["completed"])
		out = append(out, Task{ID: ids[i], Task: fields["task"], Completed: completed})
	}
	return out, nil
}

// Add stores a new task and returns it with its id.
func (s *RedisStore) Add(ctx context.Context, text string, completed bool) (Task, error) {
	seq, err := s.rdb.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return Task{}, fmt.Errorf("failed to allocate task sequence: %w", err)
	}

	t := Task{ID: uuid.NewString(), Task: text, Completed: completed}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.taskKey(t.ID), "task", t.Task, "completed", strconv.FormatBool(t.Completed))
		pipe.ZAdd(ctx, s.orderKey(), redis.Z{Score: float64(seq), Member: t.ID})
		return nil
	})
	if err != nil {
		return Task{}, fmt.Errorf("failed to store task: %w", err)
	}
	return t, nil
}

// Update replaces the text and completion of id.
func (s *RedisStore) Update(ctx context.Context, id, text string, completed bool) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.taskKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up task: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	if err := s.rdb.HSet(ctx, s.taskKey(id), "task", text, "completed", strconv.FormatBool(completed)).Err(); err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}
	return true, nil
}

// Remove deletes id.
func (s *RedisStore) Remove(ctx context.Context, id string) (bool, error) {
	var removed *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.ZRem(ctx, s.orderKey(), id)
		pipe.Del(ctx, s.taskKey(id))
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return removed.Val() > 0, nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
