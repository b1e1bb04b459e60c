package websocket

import (
	"context"

	"github.com/go-redis/redis/v8"
)

const EventsChannel = "linkrite:events"

// RedisBridge shares events between instances over Redis pub/sub.
type RedisBridge struct {
	client  *redis.Client
	channel string
}

func NewRedisBridge(client *redis.Client) *RedisBridge {
	return &RedisBridge{client: client, channel: EventsChannel}
}

func (b *RedisBridge) Publish(ctx context.Context, data []byte) error {
	return b.client.Publish(ctx, b.channel, data).Err()
}

// Subscribe blocks, handing every message on the channel to handle, until ctx is done.
func (b *RedisBridge) Subscribe(ctx context.Context, handle func(data []byte)) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handle([]byte(msg.Payload))
		}
	}
}
