package tablecache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/dgraph-io/ristretto"
	redis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/prashanthpai/tablecache/cache"
)

func TestRistretto(t *testing.T) {
	assert := require.New(t)
	ctx := context.Background()

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
	})
	assert.Nil(err)
	r := NewRistretto(c)
	defer r.Close()

	item, ok, err := r.Get(ctx, "k")
	assert.Nil(err)
	assert.False(ok)
	assert.Nil(item)

	want := &cache.Item{Records: []map[string]interface{}{{"id": int64(1)}}}
	assert.Nil(r.Set(ctx, "k", want, time.Minute))
	assert.Nil(r.Set(ctx, "count", &cache.Item{Count: 3}, 0))

	// ristretto applies sets asynchronously
	assert.Eventually(func() bool {
		got, ok, err := r.Get(ctx, "k")
		return err == nil && ok && got == want
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(func() bool {
		got, ok, _ := r.Get(ctx, "count")
		return ok && got.Count == 3
	}, time.Second, 10*time.Millisecond)

	assert.Nil(r.Del(ctx, "k"))
	_, ok, err = r.Get(ctx, "k")
	assert.Nil(err)
	assert.False(ok)

	// foreign values are reported, not served
	c.Set("foreign", "not an item", 1)
	assert.Eventually(func() bool {
		_, _, err := r.Get(ctx, "foreign")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

// TestRedis needs a reachable server, e.g.
// TABLECACHE_TEST_REDIS=127.0.0.1:6379 go test -run TestRedis
func TestRedis(t *testing.T) {
	addr := os.Getenv("TABLECACHE_TEST_REDIS")
	if addr == "" {
		t.Skip("TABLECACHE_TEST_REDIS not set")
	}
	assert := require.New(t)
	ctx := context.Background()

	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{addr},
	})
	defer rc.Close()
	assert.Nil(rc.Ping(ctx).Err())

	r := NewRedis(rc, "tablecache-test:")
	defer r.Del(ctx, t.Name())

	_, ok, err := r.Get(ctx, t.Name())
	assert.Nil(err)
	assert.False(ok)

	item := &cache.Item{Records: []map[string]interface{}{{"id": int64(1), "name": "ann"}}, Count: 1}
	assert.Nil(r.Set(ctx, t.Name(), item, time.Minute))

	got, ok, err := r.Get(ctx, t.Name())
	assert.Nil(err)
	assert.True(ok)
	assert.Equal(int64(1), got.Count)
	assert.Len(got.Records, 1)
	assert.Equal("ann", got.Records[0]["name"])

	ttl, err := rc.TTL(ctx, "tablecache-test:"+t.Name()).Result()
	assert.Nil(err)
	assert.True(ttl > 0)

	assert.Nil(r.Del(ctx, t.Name()))
	_, ok, err = r.Get(ctx, t.Name())
	assert.Nil(err)
	assert.False(ok)
}
