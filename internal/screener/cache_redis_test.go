package screener

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db)
	ctx := context.Background()

	mock.ExpectSet("pmccscan:screen:abc", []byte(`[{"symbol":"AAPL"}]`), time.Minute).SetVal("OK")
	c.Set(ctx, "pmccscan:screen:abc", []byte(`[{"symbol":"AAPL"}]`), time.Minute)

	mock.ExpectGet("pmccscan:screen:abc").SetVal(`[{"symbol":"AAPL"}]`)
	got, ok := c.Get(ctx, "pmccscan:screen:abc")
	require.True(t, ok)
	assert.Equal(t, []byte(`[{"symbol":"AAPL"}]`), got)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheMissAndErrorAreSoft(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := NewRedisCache(db)
	ctx := context.Background()

	mock.ExpectGet("missing").RedisNil()
	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	mock.ExpectSet("k", []byte("v"), time.Minute).SetErr(assert.AnError)
	c.Set(ctx, "k", []byte("v"), time.Minute)

	require.NoError(t, mock.ExpectationsWereMet())
}
