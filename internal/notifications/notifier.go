// Package notifications delivers realtime activity events to websocket clients
// through Redis pub/sub.
package notifications

import (
	"context"
	"fmt"
	"runtime/debug"

	"conduit/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const userChannelPattern = "notifications:user:*"

// UserChannel returns the pub/sub channel carrying events for userID.
func UserChannel(userID uint) string {
	return fmt.Sprintf("notifications:user:%d", userID)
}

// Notifier publishes activity payloads into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier. A nil client turns every publish into a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// StartPatternSubscriber subscribes to every user channel and calls onMessage
// for each incoming message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(
	ctx context.Context, onMessage func(channel string, payload string),
) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern)
	// Wait for the subscription to be confirmed so early publishes are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", userChannelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								"panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}
