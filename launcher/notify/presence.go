package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/glauncher/glauncher-api/cache"
)

// DefaultPresenceTTL is how long a heartbeat keeps a user online.
const DefaultPresenceTTL = 90 * time.Second

// Presence tracks which users hold a live connection. Each heartbeat refreshes
// a TTL key so a dropped connection goes offline on its own.
type Presence struct {
	c   cache.Cache
	ttl time.Duration
}

// NewPresence creates a Presence tracker. ttl <= 0 uses DefaultPresenceTTL.
func NewPresence(c cache.Cache, ttl time.Duration) *Presence {
	if ttl <= 0 {
		ttl = DefaultPresenceTTL
	}
	return &Presence{c: c, ttl: ttl}
}

// TTL returns the heartbeat lifetime.
func (p *Presence) TTL() time.Duration { return p.ttl }

func presenceKey(userID int64) string {
	return "presence:" + strconv.FormatInt(userID, 10)
}

// Touch marks the user online for another TTL.
func (p *Presence) Touch(ctx context.Context, userID int64) error {
	return p.c.Set(ctx, presenceKey(userID), "1", p.ttl)
}

// Leave marks the user offline.
func (p *Presence) Leave(ctx context.Context, userID int64) error {
	return p.c.Del(ctx, presenceKey(userID))
}

// IsOnline reports whether the user has a live heartbeat. Cache errors read as
// offline.
func (p *Presence) IsOnline(ctx context.Context, userID int64) bool {
	if p == nil {
		return false
	}
	ok, err := p.c.Exists(ctx, presenceKey(userID))
	return err == nil && ok
}
