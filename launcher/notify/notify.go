// Package notify fans launcher events out to connected clients over the
// cache pub/sub. Delivery is best-effort: a failed publish is logged and never
// fails the operation that produced it.
package notify

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/glauncher/glauncher-api/cache"
	"go.uber.org/zap"
)

// Event types.
const (
	EventFriendRequest  = "friend_request"
	EventFriendAccepted = "friend_accepted"
	EventFriendRemoved  = "friend_removed"
	EventRoleChanged    = "role_changed"
	EventBanned         = "banned"
	EventUnbanned       = "unbanned"
	EventCoinsChanged   = "coins_changed"
	EventStatusUpdate   = "status_update"
	EventChatMessage    = "chat_message"
	EventChatDeleted    = "chat_deleted"
	EventChatCleared    = "chat_cleared"
	EventPresence       = "presence"

	EventPrivateMessage      = "private_message"
	EventPrivateRead         = "private_read"
	EventTyping              = "typing"
	EventWallMessage         = "wall_message"
	EventWallDeleted         = "wall_deleted"
	EventAchievementUnlocked = "achievement_unlocked"
	EventAchievementReaction = "achievement_reaction"
)

// Broadcast channels every client listens to.
const (
	GlobalChatChannel     = "chat:global"
	GlobalPresenceChannel = "presence:global"
	WallChannel           = "wall:global"
	DashboardChannel      = "dashboard:global"
)

// UserChannel returns the private channel of a user.
func UserChannel(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// Subscriptions returns the channels a connected client of userID listens to.
func Subscriptions(userID int64) []string {
	return []string{UserChannel(userID), GlobalChatChannel, GlobalPresenceChannel, WallChannel, DashboardChannel}
}

// Event is the JSON envelope published on a channel.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Publisher publishes events. A nil *Publisher drops everything.
type Publisher struct {
	ps  cache.PubSub
	log *zap.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(ps cache.PubSub, log *zap.Logger) *Publisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Publisher{ps: ps, log: log}
}

// ToUser publishes an event on the user's private channel.
func (p *Publisher) ToUser(ctx context.Context, userID int64, typ string, payload interface{}) {
	p.Publish(ctx, UserChannel(userID), typ, payload)
}

// Publish publishes an event on an arbitrary channel.
func (p *Publisher) Publish(ctx context.Context, channel, typ string, payload interface{}) {
	if p == nil || p.ps == nil {
		return
	}
	data, err := json.Marshal(Event{Type: typ, Payload: payload})
	if err != nil {
		p.log.Warn("notify: marshal event", zap.String("type", typ), zap.Error(err))
		return
	}
	if err := p.ps.Publish(ctx, channel, string(data)); err != nil {
		p.log.Warn("notify: publish",
			zap.String("channel", channel),
			zap.String("type", typ),
			zap.Error(err))
	}
}
