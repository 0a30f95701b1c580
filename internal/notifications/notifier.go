// Package notifications pushes per-user events to WebSocket connections
// through Redis pub/sub so every instance can reach every user.
package notifications

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/00xu00/blog/internal/middleware"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// Event types pushed to clients.
const (
	EventMessageNew  = "message.new"
	EventMessageRead = "message.read"
	EventFollowNew   = "follow.new"
)

// Event is the envelope written to the socket.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Publisher is what services use to notify a user.
type Publisher interface {
	PublishUser(ctx context.Context, userID uint, event Event) error
}

// Notifier publishes events into Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

func parseUserChannel(channel string) (uint, bool) {
	rest, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// PublishUser sends event to every connection of userID. Without Redis it
// is a no-op.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, event Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// Subscribe listens on every user channel and calls onMessage for each
// message until ctx is cancelled.
func (n *Notifier) Subscribe(ctx context.Context, onMessage func(userID uint, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe notifications: %w", err)
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
				userID, valid := parseUserChannel(msg.Channel)
				if !valid {
					middleware.Logger.Warn("invalid notification channel", "channel", msg.Channel)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								"panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(userID, msg.Payload)
				}()
			}
		}
	}()
	return nil
}
