package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/mangalayout/pkg/cache"
	"github.com/matzehuels/mangalayout/pkg/errors"
	pageio "github.com/matzehuels/mangalayout/pkg/io"
	"github.com/matzehuels/mangalayout/pkg/panel"
)

// RedisStore keeps each page record as a JSON string under
// <prefix>:page:<name> and the set of names under <prefix>:pages.
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *log.Logger
}

// NewRedisStore connects to the server at rawURL and checks it answers,
// retrying transient network failures.
func NewRedisStore(ctx context.Context, rawURL, prefix string, logger *log.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "redis url")
	}
	return NewRedisStoreFromClient(ctx, redis.NewClient(opts), prefix, logger)
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(ctx context.Context, client *redis.Client, prefix string, logger *log.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = log.Default()
	}
	s := &RedisStore{client: client, prefix: prefix, logger: logger}
	err := cache.RetryWithBackoff(ctx, func() error {
		return retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		_ = client.Close()
		return nil, storeErr(err, "connect to redis")
	}
	logger.Debug("connected to redis", "addr", client.Options().Addr, "prefix", prefix)
	return s, nil
}

func (s *RedisStore) pageKey(name string) string { return s.prefix + ":page:" + name }
func (s *RedisStore) namesKey() string          { return s.prefix + ":pages" }

func (s *RedisStore) Put(ctx context.Context, pg *panel.Page) (err error) {
	start := time.Now()
	name := pg.Name()
	var data []byte
	defer func() { reportPut(ctx, "redis", name, len(data), start, err) }()

	if err := validName(name); err != nil {
		return err
	}
	if data, err = pageio.Marshal(pg); err != nil {
		return err
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, s.pageKey(name), data, 0)
			p.SAdd(ctx, s.namesKey(), name)
			return nil
		})
		return retryable(err)
	})
	if err != nil {
		return storeErr(err, "put page %s", name)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, name string) (pg *panel.Page, err error) {
	start := time.Now()
	defer func() { reportGet(ctx, "redis", name, start, err) }()

	if err := validName(name); err != nil {
		return nil, err
	}
	var data []byte
	err = cache.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = s.client.Get(ctx, s.pageKey(name)).Bytes()
		return retryable(err)
	})
	if stderrors.Is(err, redis.Nil) {
		return nil, notFound(name)
	}
	if err != nil {
		return nil, storeErr(err, "get page %s", name)
	}
	return pageio.Unmarshal(data)
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.namesKey()).Result()
	if err != nil {
		return nil, storeErr(err, "list pages")
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, s.pageKey(name))
		p.SRem(ctx, s.namesKey(), name)
		return nil
	})
	if err != nil {
		return storeErr(err, "delete page %s", name)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

// retryable marks network failures for another attempt.
func retryable(err error) error {
	var ne net.Error
	if err != nil && stderrors.As(err, &ne) {
		return cache.Retryable(fmt.Errorf("%w: %v", cache.ErrNetwork, err))
	}
	return err
}

var _ Store = (*RedisStore)(nil)
