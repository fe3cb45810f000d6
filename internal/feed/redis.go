package feed

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	yerrors "github.com/yanun0323/errors"

	"main/pkg/exception"
)

// RedisSource reads mark prices published by the market-data service.
type RedisSource struct {
	client *redis.Client
}

// NewRedisSource connects to the shared price cache.
func NewRedisSource(addr, password string, db int) *RedisSource {
	return &RedisSource{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func key(symbol string) string { return "mark:" + symbol }

// MarkPrice fetches the latest published price for a symbol.
func (s *RedisSource) MarkPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	raw, err := s.client.Get(ctx, key(symbol)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, exception.ErrPriceUnavailable
	}
	if err != nil {
		return decimal.Zero, yerrors.Wrap(exception.ErrConnection, "read mark price: "+err.Error())
	}
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, yerrors.Wrap(exception.ErrPriceUnavailable, "decode mark price: "+err.Error())
	}
	return price, nil
}

// Close releases the redis connection.
func (s *RedisSource) Close() error {
	return s.client.Close()
}
