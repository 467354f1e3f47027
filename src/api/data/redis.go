package data

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	noncePrefix = "nonce:"
	streamVotes = "budget.votes"
)

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

func SetNonce(ctx context.Context, rdb *redis.Client, addr, nonce string) error {
	return rdb.Set(ctx, noncePrefix+addr, nonce, 5*time.Minute).Err()
}

func GetNonce(ctx context.Context, rdb *redis.Client, addr string) (string, error) {
	return rdb.Get(ctx, noncePrefix+addr).Result()
}

func DelNonce(ctx context.Context, rdb *redis.Client, addr string) {
	rdb.Del(ctx, noncePrefix+addr)
}

// PublishVote appends a cast-vote event to the vote stream so downstream
// consumers (dashboards, notifiers) can follow along.
func PublishVote(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamVotes,
		Values: payload,
	}).Result()
	return err
}
