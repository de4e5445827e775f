// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Client 是对 go-redis 的一层轻封装，统一连接配置与健康检查。
type Client struct {
	rdb *goredis.Client
}

// NewClient 创建并验证一个 Redis 连接。
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// GetClient 暴露底层客户端给需要高级命令（如 SCAN、Pipeline）的调用方。
func (c *Client) GetClient() *goredis.Client {
	return c.rdb
}

// Close 关闭底层连接池。
func (c *Client) Close() error {
	return c.rdb.Close()
}
