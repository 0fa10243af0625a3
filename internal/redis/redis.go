package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// connectTimeout bounds the startup ping; session reads later run on
// request contexts.
const connectTimeout = 2 * time.Second

// Client wraps the go-redis client backing session storage.
type Client struct {
	*goredis.Client
}

// New connects and verifies the server is reachable before the
// gateway starts accepting logins.
func New(addr, password string) (*Client, error) {

	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: connect %s: %w", addr, err)
	}

	return &Client{Client: client}, nil
}
