package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kompox/modelops/internal/logging"
	redis "github.com/redis/go-redis/v9"
)

// RedisOptions tunes the Redis lease lock. Zero values take defaults.
type RedisOptions struct {
	// Prefix is prepended to every key. Default "modelops:lock:".
	Prefix string
	// TTL bounds how long a crashed holder keeps the lease. Default 30s.
	TTL time.Duration
	// RetryInterval is the polling delay while the key is held. Default 50ms.
	RetryInterval time.Duration
}

func (o *RedisOptions) applyDefaults() {
	if o.Prefix == "" {
		o.Prefix = "modelops:lock:"
	}
	if o.TTL <= 0 {
		o.TTL = 30 * time.Second
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = 50 * time.Millisecond
	}
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease lock shared by every process using the same Redis.
type Redis struct {
	client redis.UniversalClient
	opts   RedisOptions
}

// NewRedis returns a Redis locker on client.
func NewRedis(client redis.UniversalClient, opts *RedisOptions) *Redis {
	o := RedisOptions{}
	if opts != nil {
		o = *opts
	}
	o.applyDefaults()
	return &Redis{client: client, opts: o}
}

// NewRedisFromURL connects to a redis:// or rediss:// URL and checks the
// connection with PING.
func NewRedisFromURL(ctx context.Context, url string, opts *RedisOptions) (*Redis, func() error, error) {
	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(ro)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(client, opts), client.Close, nil
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	rkey := r.opts.Prefix + key
	token := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, rkey, token, r.opts.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.opts.RetryInterval):
		}
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even when the caller's context is already done.
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, r.client, []string{rkey}, token).Err(); err != nil {
				logging.FromContext(ctx).Warn(ctx, "Lock:Release/efail", "key", key, "err", err)
			}
		})
	}, nil
}

var _ Locker = (*Redis)(nil)
