package utils

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// UserCacheTTL bounds how long a cached profile may be served.
const UserCacheTTL = 5 * time.Minute

// cacheClient is swapped in tests.
var cacheClient = GetRedis

// setIfGeneration stores KEYS[2] only while KEYS[1] still holds the generation read before the load.
const setIfGeneration = `
local g = redis.call('GET', KEYS[1]) or '0'
if g == ARGV[1] then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
	return 1
end
return 0`

// UserCacheKey is the cache key of a user's public profile.
func UserCacheKey(id uint) string {
	return "user:profile:" + strconv.FormatUint(uint64(id), 10)
}

func userGenerationKey(id uint) string {
	return UserCacheKey(id) + ":gen"
}

// CacheGetJSON loads key into v. It reports false on a miss, a decode error, or when redis is off.
func CacheGetJSON(key string, v interface{}) bool {
	rc := cacheClient()
	if rc == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		if Sugar != nil {
			Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		}
		return false
	}
	return json.Unmarshal(b, v) == nil
}

// UserCacheGeneration returns the profile's invalidation counter. Read it before loading the row
// and hand it to CacheSetUserIfCurrent. A result of -1 means the profile must not be cached.
func UserCacheGeneration(id uint) int64 {
	rc := cacheClient()
	if rc == nil {
		return -1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	gen, err := rc.Get(ctx, userGenerationKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache generation read failed id=%d err=%v", id, err)
		}
		return -1
	}
	return gen
}

// CacheSetUserIfCurrent caches v for UserCacheTTL unless the profile was invalidated after gen was read.
func CacheSetUserIfCurrent(id uint, gen int64, v interface{}) bool {
	rc := cacheClient()
	if rc == nil || gen < 0 {
		return false
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	stored, err := rc.Eval(ctx, setIfGeneration,
		[]string{userGenerationKey(id), UserCacheKey(id)},
		strconv.FormatInt(gen, 10), string(b), strconv.FormatInt(UserCacheTTL.Milliseconds(), 10),
	).Int64()
	if err != nil {
		if Sugar != nil {
			Sugar.Warnf("cache set failed id=%d err=%v", id, err)
		}
		return false
	}
	return stored == 1
}

// InvalidateUserCache bumps the profile generation, then drops the cached copy. A load that
// started before the bump can no longer write its stale row back.
func InvalidateUserCache(id uint) {
	rc := cacheClient()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Incr(ctx, userGenerationKey(id)).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("cache generation bump failed id=%d err=%v", id, err)
	}
	CacheDelete(UserCacheKey(id))
}

// CacheDelete drops the given keys.
func CacheDelete(keys ...string) {
	rc := cacheClient()
	if rc == nil || len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Del(ctx, keys...).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("cache delete failed keys=%v err=%v", keys, err)
	}
}
