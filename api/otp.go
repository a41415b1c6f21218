package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// otpStore keeps at most one code per email. Expired records are reported as
// errRecordNotFound. Setting a new code resets its failed attempt count.
type otpStore interface {
	set(ctx context.Context, rec otpRecord) error
	get(ctx context.Context, email string) (*otpRecord, error)
	delete(ctx context.Context, email string) error
	// recordFailure counts one wrong guess against rec and returns the total.
	recordFailure(ctx context.Context, rec otpRecord) (int, error)
}

type memoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]otpRecord
	now     func() time.Time
}

func newMemoryOTPStore() *memoryOTPStore {
	return &memoryOTPStore{
		entries: make(map[string]otpRecord),
		now:     time.Now,
	}
}

func (c *memoryOTPStore) set(_ context.Context, rec otpRecord) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, v := range c.entries {
		if v.expired(now) {
			delete(c.entries, k)
		}
	}
	rec.Attempts = 0
	c.entries[rec.Email] = rec
	return nil
}

func (c *memoryOTPStore) get(_ context.Context, email string) (*otpRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[email]
	if !ok {
		return nil, errRecordNotFound
	}
	if e.expired(c.now()) {
		delete(c.entries, email)
		return nil, errRecordNotFound
	}
	return &e, nil
}

func (c *memoryOTPStore) delete(_ context.Context, email string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, email)
	return nil
}

func (c *memoryOTPStore) recordFailure(_ context.Context, rec otpRecord) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[rec.Email]
	if !ok || e.Code != rec.Code || e.expired(c.now()) {
		return 0, errRecordNotFound
	}
	e.Attempts++
	c.entries[rec.Email] = e
	return e.Attempts, nil
}

type redisOTPStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

func newRedisOTPStore(client *redis.Client) *redisOTPStore {
	return &redisOTPStore{
		client: client,
		prefix: "otp:",
		now:    time.Now,
	}
}

func openRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (s *redisOTPStore) set(ctx context.Context, rec otpRecord) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return s.delete(ctx, rec.Email)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.prefix+rec.Email, data, ttl)
		pipe.Del(ctx, s.attemptsKey(rec.Email))
		return nil
	})
	return err
}

func (s *redisOTPStore) get(ctx context.Context, email string) (*otpRecord, error) {
	data, err := s.client.Get(ctx, s.prefix+email).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errRecordNotFound
		}
		return nil, err
	}
	var rec otpRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if rec.expired(s.now()) {
		return nil, errRecordNotFound
	}
	return &rec, nil
}

func (s *redisOTPStore) delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, s.prefix+email, s.attemptsKey(email)).Err()
}

// recordFailure keeps the count in its own key so concurrent guesses are
// counted with INCR. The counter expires with the code.
func (s *redisOTPStore) recordFailure(ctx context.Context, rec otpRecord) (int, error) {
	key := s.attemptsKey(rec.Email)
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.PExpireAt(ctx, key, rec.ExpiresAt)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

func (s *redisOTPStore) attemptsKey(email string) string {
	return s.prefix + "attempts:" + email
}
