package utils

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestJWTRoundTrip(t *testing.T) {
	tok, err := GenerateJWT("user-1", "0xabc", "secret")
	require.NoError(t, err)

	claims, err := ParseJWT(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "0xabc", claims.Address)
	assert.Equal(t, "user-1", claims.Subject)

	_, err = ParseJWT(tok, "other")
	assert.Error(t, err)
}

func TestParseJWT_Expired(t *testing.T) {
	claims := Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseJWT(tok, "secret")
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestParseJWT_MissingUser(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseJWT(tok, "secret")
	assert.Error(t, err)
}

func TestCacheHelpers(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}

	var out payload
	found, err := GetCache(ctx, rdb, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetCache(ctx, rdb, "k", payload{Name: "eth"}, time.Minute))
	found, err = GetCache(ctx, rdb, "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "eth", out.Name)

	mr.FastForward(2 * time.Minute)
	found, err = GetCache(ctx, rdb, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeletePrefix(t *testing.T) {
	mr, rdb := newRedis(t)
	ctx := context.Background()

	require.NoError(t, SetCache(ctx, rdb, AdminUsersKey(1, 20), []int{1}, time.Minute))
	require.NoError(t, SetCache(ctx, rdb, AdminUsersKey(2, 20), []int{2}, time.Minute))
	require.NoError(t, SetCache(ctx, rdb, HistoryKey("u1", 0), []int{3}, time.Minute))

	require.NoError(t, DeletePrefix(ctx, rdb, AdminUsersPrefix))
	assert.False(t, mr.Exists(AdminUsersKey(1, 20)))
	assert.False(t, mr.Exists(AdminUsersKey(2, 20)))
	assert.True(t, mr.Exists(HistoryKey("u1", 0)))
}

func TestVersion(t *testing.T) {
	_, rdb := newRedis(t)
	ctx := context.Background()
	key := HistoryVersionKey("u1")

	v, err := GetVersion(ctx, rdb, key)
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, BumpVersion(ctx, rdb, key))
	require.NoError(t, BumpVersion(ctx, rdb, key))
	v, err = GetVersion(ctx, rdb, key)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
	assert.NotEqual(t, HistoryKey("u1", 1), HistoryKey("u1", 2))

	v, err = GetVersion(ctx, nil, key)
	assert.NoError(t, err)
	assert.Zero(t, v)
	assert.NoError(t, BumpVersion(ctx, nil, key))
}

func TestNilClientIsNoop(t *testing.T) {
	ctx := context.Background()
	var out []int
	found, err := GetCache(ctx, nil, "k", &out)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetCache(ctx, nil, "k", 1, time.Minute))
	assert.NoError(t, DeleteCache(ctx, nil, "k"))
	assert.NoError(t, DeletePrefix(ctx, nil, "k"))
}

func TestAdminTxKey(t *testing.T) {
	key := AdminTxKey(map[string]string{"user_id": "u1", "page": "2"}, "user_id", "asset", "page")
	assert.Equal(t, "admin:txs:user_id=u1:asset=:page=2", key)
}
