package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	loginWindow      = 15 * time.Minute
	lockDuration     = 10 * time.Minute
	maxLoginAttempts = 5
)

// AttemptStore はクライアント単位のログイン失敗回数を保持します。
// loginWindow 内に maxLoginAttempts 回失敗すると lockDuration の間ロックされます。
type AttemptStore interface {
	// LockedFor はロック中なら残り時間、そうでなければ 0 を返します。
	LockedFor(ctx context.Context, key string) (time.Duration, error)
	// RecordFailure は失敗を記録し、ロックまでの残り回数を返します。
	RecordFailure(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

type attemptState struct {
	count        int
	firstAttempt time.Time
	lockedUntil  time.Time
}

// MemoryAttemptStore はプロセス内のマップで失敗回数を管理します。
type MemoryAttemptStore struct {
	lock     sync.Mutex
	attempts map[string]*attemptState
	now      func() time.Time
}

func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{
		attempts: make(map[string]*attemptState),
		now:      time.Now,
	}
}

func (s *MemoryAttemptStore) LockedFor(ctx context.Context, key string) (time.Duration, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	state, ok := s.attempts[key]
	if !ok {
		return 0, nil
	}
	now := s.now()
	if !now.Before(state.lockedUntil) {
		return 0, nil
	}
	return state.lockedUntil.Sub(now), nil
}

func (s *MemoryAttemptStore) RecordFailure(ctx context.Context, key string) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.now()
	state, ok := s.attempts[key]
	if !ok || (now.Sub(state.firstAttempt) > loginWindow && !now.Before(state.lockedUntil)) {
		state = &attemptState{firstAttempt: now}
		s.attempts[key] = state
	}

	state.count++
	if state.count >= maxLoginAttempts {
		state.lockedUntil = now.Add(lockDuration)
		state.count = maxLoginAttempts
	}

	remaining := maxLoginAttempts - state.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (s *MemoryAttemptStore) Reset(ctx context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.attempts, key)
	return nil
}

const (
	failKeyPrefix = "login:fail:"
	lockKeyPrefix = "login:lock:"
)

// RedisAttemptStore は Redis のカウンターと TTL で失敗回数を管理します。
// 複数インスタンスで同じ制限を共有できます。
type RedisAttemptStore struct {
	rdb *redis.Client
}

func NewRedisAttemptStore(rdb *redis.Client) *RedisAttemptStore {
	return &RedisAttemptStore{rdb: rdb}
}

func (s *RedisAttemptStore) LockedFor(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.rdb.PTTL(ctx, lockKeyPrefix+key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis pttl: %w", err)
	}
	// キーが無い場合は -2、TTL 無しは -1 が返る
	if ttl <= 0 {
		return 0, nil
	}
	return ttl, nil
}

func (s *RedisAttemptStore) RecordFailure(ctx context.Context, key string) (int, error) {
	failKey := failKeyPrefix + key

	n, err := s.rdb.Incr(ctx, failKey).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	// 最初の失敗でウィンドウを開始する
	if n == 1 {
		if err := s.rdb.Expire(ctx, failKey, loginWindow).Err(); err != nil {
			return 0, fmt.Errorf("redis expire: %w", err)
		}
	}

	count := int(n)
	if count >= maxLoginAttempts {
		pipe := s.rdb.TxPipeline()
		pipe.Set(ctx, lockKeyPrefix+key, "1", lockDuration)
		pipe.Del(ctx, failKey)
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, fmt.Errorf("redis lock: %w", err)
		}
		return 0, nil
	}
	return maxLoginAttempts - count, nil
}

func (s *RedisAttemptStore) Reset(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, failKeyPrefix+key, lockKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
