package weather

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owmBody = `{"name":"Minsk","weather":[{"main":"Clouds","description":"overcast clouds"}],"main":{"temp":3.5,"feels_like":0.2,"humidity":81},"wind":{"speed":4.1}}`

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func newUpstream(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/weather", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(owmBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCurrent_CachesByRoundedCoordinates(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := newUpstream(t, &calls)
	mr, rdb := newTestRedis(t)

	c := NewClient(srv.URL, "key", rdb)
	ctx := context.Background()

	cond, err := c.Current(ctx, 53.9023, 27.5619)
	require.NoError(t, err)
	assert.Equal(t, "Minsk", cond.Location)
	assert.Equal(t, "Clouds", cond.Summary)
	assert.Equal(t, 81, cond.Humidity)
	assert.False(t, cond.Cached)

	cond, err = c.Current(ctx, 53.9011, 27.5599)
	require.NoError(t, err)
	assert.True(t, cond.Cached)
	assert.Equal(t, int32(1), calls.Load())

	assert.True(t, mr.Exists("weather:53.90:27.56"))
	mr.FastForward(DefaultCacheTTL + time.Second)

	_, err = c.Current(ctx, 53.9023, 27.5619)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCurrent_WithoutCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := newUpstream(t, &calls)
	c := NewClient(srv.URL, "key", nil)

	for i := 0; i < 2; i++ {
		_, err := c.Current(context.Background(), 1, 2)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestCurrent_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"invalid key"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "key", nil)
	_, err := c.Current(context.Background(), 1, 2)
	require.ErrorIs(t, err, ErrUpstream)

	_, err = c.Current(context.Background(), 91, 0)
	require.ErrorIs(t, err, ErrBadCoords)
	_, err = c.Current(context.Background(), math.NaN(), 0)
	require.ErrorIs(t, err, ErrBadCoords)
	_, err = c.Current(context.Background(), 0, math.Inf(-1))
	require.ErrorIs(t, err, ErrBadCoords)

	_, err = NewClient(srv.URL, "", nil).Current(context.Background(), 1, 2)
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewRedis(t *testing.T) {
	t.Parallel()

	mr, _ := newTestRedis(t)
	client, err := NewRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = NewRedis(context.Background(), "not a url")
	require.Error(t, err)
}
