package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTimeout = 3 * time.Second

// NewPool opens a pgx connection pool and verifies it with a ping.
func NewPool(connStr string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
