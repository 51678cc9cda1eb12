package repository

import (
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisOptions accepts either a redis:// URL or a bare host:port.
func RedisOptions(uri string) (*redis.Options, error) {
	if strings.HasPrefix(uri, "redis://") || strings.HasPrefix(uri, "rediss://") {
		opt, err := redis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return opt, nil
	}
	return &redis.Options{Addr: uri}, nil
}
