// Package gate evaluates per-user time-windowed actions and derives tiers.
package gate

import (
	"context"
	"errors"
	"time"

	"github.com/glauncher/glauncher-api/launcher/apperr"
	"github.com/glauncher/glauncher-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Action names.
const (
	ActionChatMessage = "chat_message"
	ActionDailyReward = "daily_reward"
	ActionWallPost    = "wall_post"
)

// Check inspects the locked user row before the window is evaluated. A
// non-nil error denies the action ahead of any rate limit.
type Check func(u *model.User, now time.Time) error

// Action binds a gated action to the user column that stamps it.
type Action struct {
	Name   string
	Column string
	Window time.Duration
	last   func(*model.User) *time.Time
	checks []Check
}

// Require returns a copy of a that runs check before the window.
func (a Action) Require(check Check) Action {
	a.checks = append(append([]Check(nil), a.checks...), check)
	return a
}

// ChatMessage gates sending a chat message.
func ChatMessage(window time.Duration) Action {
	return Action{
		Name:   ActionChatMessage,
		Column: "last_message_at",
		Window: window,
		last:   func(u *model.User) *time.Time { return u.LastMessageAt },
	}
}

// DailyReward gates claiming the daily coin grant.
func DailyReward(window time.Duration) Action {
	return Action{
		Name:   ActionDailyReward,
		Column: "last_daily_reward_at",
		Window: window,
		last:   func(u *model.User) *time.Time { return u.LastDailyRewardAt },
	}
}

// WallPost gates posting on the community wall.
func WallPost(window time.Duration) Action {
	return Action{
		Name:   ActionWallPost,
		Column: "last_wall_post_at",
		Window: window,
		last:   func(u *model.User) *time.Time { return u.LastWallPostAt },
	}
}

// Allow reports whether an action last performed at last may run again at now.
// When denied, remaining is the time until the window reopens.
func Allow(last *time.Time, window time.Duration, now time.Time) (bool, time.Duration) {
	if last == nil {
		return true, 0
	}
	elapsed := now.Sub(*last)
	if elapsed >= window {
		return true, 0
	}
	return false, window - elapsed
}

// Effect runs inside the gated transaction with the locked user row. All
// writes must go through tx.
type Effect func(tx *gorm.DB, u *model.User) error

const defaultMaxAttempts = 3

var errStale = errors.New("gate: stale version")

// Evaluator runs gated actions.
type Evaluator struct {
	db          *gorm.DB
	maxAttempts int
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(db *gorm.DB) *Evaluator {
	return &Evaluator{db: db, maxAttempts: defaultMaxAttempts}
}

// TryExecute runs the action's checks and the gate for userID, then runs
// effect and stamps the action, all in one transaction. A concurrent execution that commits first makes the
// loser re-evaluate against the new stamp, so at most one of them passes a
// window. Denials return *apperr.RateLimitedError and leave nothing written.
func (e *Evaluator) TryExecute(ctx context.Context, userID int64, a Action, now time.Time, effect Effect) error {
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return e.attempt(tx, userID, a, now, effect)
		})
		if errors.Is(err, errStale) {
			continue
		}
		observe(a.Name, err)
		return err
	}
	observe(a.Name, errStale)
	return apperr.Internal(errStale)
}

func (e *Evaluator) attempt(tx *gorm.DB, userID int64, a Action, now time.Time, effect Effect) error {
	var u model.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.ErrNotFound
		}
		return apperr.Internal(err)
	}

	for _, check := range a.checks {
		if err := check(&u, now); err != nil {
			return err
		}
	}

	if ok, remaining := Allow(a.last(&u), a.Window, now); !ok {
		return &apperr.RateLimitedError{Action: a.Name, Remaining: remaining}
	}

	if effect != nil {
		if err := effect(tx, &u); err != nil {
			return err
		}
	}

	res := tx.Model(&model.User{}).
		Where("id = ? AND version = ?", u.ID, u.Version).
		Updates(map[string]interface{}{
			a.Column:  now,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return errStale
	}
	return nil
}
