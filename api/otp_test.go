package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOTPStore(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newMemoryOTPStore()
	s.now = func() time.Time { return now }

	_, err := s.get(ctx, "ada@example.com")
	require.ErrorIs(t, err, errRecordNotFound)

	require.NoError(t, s.set(ctx, otpRecord{Email: "ada@example.com", Code: "111111", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, s.set(ctx, otpRecord{Email: "ada@example.com", Code: "222222", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))

	rec, err := s.get(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "222222", rec.Code)

	require.NoError(t, s.delete(ctx, "ada@example.com"))
	_, err = s.get(ctx, "ada@example.com")
	require.ErrorIs(t, err, errRecordNotFound)
}

func TestMemoryOTPStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	s := newMemoryOTPStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.set(ctx, otpRecord{Email: "a@example.com", Code: "111111", ExpiresAt: now.Add(time.Minute)}))
	require.NoError(t, s.set(ctx, otpRecord{Email: "b@example.com", Code: "222222", ExpiresAt: now.Add(time.Hour)}))

	s.now = func() time.Time { return now.Add(time.Minute) }
	_, err := s.get(ctx, "a@example.com")
	require.ErrorIs(t, err, errRecordNotFound)

	// writes sweep anything already expired
	s.now = func() time.Time { return now.Add(2 * time.Hour) }
	require.NoError(t, s.set(ctx, otpRecord{Email: "c@example.com", Code: "333333", ExpiresAt: now.Add(3 * time.Hour)}))
	assert.Len(t, s.entries, 1)
}

func TestMemoryOTPStoreCountsFailures(t *testing.T) {
	ctx := context.Background()
	s := newMemoryOTPStore()
	now := time.Now()
	rec := otpRecord{Email: "ada@example.com", Code: "111111", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}
	require.NoError(t, s.set(ctx, rec))

	n, err := s.recordFailure(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.recordFailure(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	fresh := rec
	fresh.Code = "222222"
	require.NoError(t, s.set(ctx, fresh))
	_, err = s.recordFailure(ctx, rec)
	require.ErrorIs(t, err, errRecordNotFound, "a replaced code is not counted")
	n, err = s.recordFailure(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRedisOTPStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}
	defer client.Close()

	s := newRedisOTPStore(client)
	s.prefix = "otp-test:"
	email := "ada@example.com"
	defer client.Del(ctx, s.prefix+email, s.attemptsKey(email))

	now := time.Now()
	require.NoError(t, s.set(ctx, otpRecord{Email: email, Code: "123456", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))

	rec, err := s.get(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, "123456", rec.Code)

	ttl, err := client.TTL(ctx, s.prefix+email).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	n, err := s.recordFailure(ctx, *rec)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.recordFailure(ctx, *rec)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	attemptsTTL, err := client.PTTL(ctx, s.attemptsKey(email)).Result()
	require.NoError(t, err)
	assert.True(t, attemptsTTL > 0 && attemptsTTL <= time.Minute)

	require.NoError(t, s.set(ctx, otpRecord{Email: email, Code: "654321", CreatedAt: now, ExpiresAt: now.Add(time.Minute)}))
	n, err = s.recordFailure(ctx, *rec)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a new code starts a new count")

	require.NoError(t, s.delete(ctx, email))
	_, err = s.get(ctx, email)
	require.ErrorIs(t, err, errRecordNotFound)
	exists, err := client.Exists(ctx, s.attemptsKey(email)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}
