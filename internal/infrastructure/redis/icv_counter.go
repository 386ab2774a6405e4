// Package redis contador ICV sobre Redis (INCR es atómico en el servidor).
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/zatca-einvoice/internal/domain/repository"
	"github.com/jhoicas/zatca-einvoice/pkg/config"
)

var _ repository.ICVCounter = (*ICVCounter)(nil)

// Connect abre el cliente y verifica la conexión con PING.
func Connect(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("conectar a Redis: %w", err)
	}
	return rdb, nil
}

// ICVCounter contador ICV en una clave de Redis. El valor no se revierte si la
// transacción de la factura falla: ese ICV queda sin usar.
type ICVCounter struct {
	rdb goredis.Cmdable
	key string
}

// NewICVCounter contador en key (ZATCA_COUNTER_KEY).
func NewICVCounter(rdb goredis.Cmdable, key string) *ICVCounter {
	return &ICVCounter{rdb: rdb, key: key}
}

// Next INCR key.
func (c *ICVCounter) Next(ctx context.Context) (int64, error) {
	v, err := c.rdb.Incr(ctx, c.key).Result()
	if err != nil {
		return 0, fmt.Errorf("icv next: %w", err)
	}
	return v, nil
}

// Current GET key; 0 si no existe.
func (c *ICVCounter) Current(ctx context.Context) (int64, error) {
	v, err := c.rdb.Get(ctx, c.key).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("icv current: %w", err)
	}
	return v, nil
}
