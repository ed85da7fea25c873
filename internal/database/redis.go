package database

import (
	"os"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// InitRedisCli connects to REDIS_URL. Returns (nil, nil) when the variable
// is unset; the cache layer treats a nil client as disabled.
func InitRedisCli() (*redis.Client, error) {
	if Client != nil {
		return Client, nil
	}

	url := os.Getenv("REDIS_URL")
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	cli := redis.NewClient(opts)

	Client = cli

	return cli, nil
}
