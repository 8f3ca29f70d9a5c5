package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "mafianight:session:"

// RedisNotifier shares change signals between server instances over redis
// pub/sub. Run must be running for local listeners to receive anything,
// including signals published by this instance.
type RedisNotifier struct {
	client *redis.Client
	local  *Broker
	logger *slog.Logger
}

func NewRedisNotifier(client *redis.Client, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{
		client: client,
		local:  NewBroker(),
		logger: logger,
	}
}

// Notify publishes the change. If redis is unreachable the signal is still
// delivered to listeners on this instance.
func (n *RedisNotifier) Notify(ctx context.Context, code string) {
	if err := n.client.Publish(ctx, redisChannelPrefix+code, "changed").Err(); err != nil {
		n.logger.Error("publishing session change", "code", code, "error", err)
		n.local.Notify(ctx, code)
	}
}

func (n *RedisNotifier) Listen(code string) (<-chan struct{}, func()) {
	return n.local.Listen(code)
}

// Run forwards redis messages to local listeners until ctx is done.
func (n *RedisNotifier) Run(ctx context.Context) error {
	ps := n.client.PSubscribe(ctx, redisChannelPrefix+"*")
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s*: %w", redisChannelPrefix, err)
	}

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			code := strings.TrimPrefix(msg.Channel, redisChannelPrefix)
			n.local.Notify(ctx, code)
		}
	}
}
