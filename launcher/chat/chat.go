// Package chat is the global launcher chat.
package chat

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/glauncher/glauncher-api/config"
	"github.com/glauncher/glauncher-api/launcher/account"
	"github.com/glauncher/glauncher-api/launcher/apperr"
	"github.com/glauncher/glauncher-api/launcher/gate"
	"github.com/glauncher/glauncher-api/launcher/notify"
	"github.com/glauncher/glauncher-api/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultColor = "#ffffff"
	typeText     = "text"
)

// Service sends and moderates chat messages.
type Service struct {
	db   *gorm.DB
	gate *gate.Evaluator
	pub  *notify.Publisher
	cfg  config.LauncherConfig
	log  *zap.Logger
}

// NewService creates a Service. Zero values in cfg fall back to the defaults.
func NewService(db *gorm.DB, ev *gate.Evaluator, pub *notify.Publisher, cfg config.LauncherConfig, log *zap.Logger) *Service {
	d := config.LauncherConfig{}.Defaults()
	if cfg.ChatCooldown <= 0 {
		cfg.ChatCooldown = d.ChatCooldown
	}
	if cfg.ChatMaxLen <= 0 {
		cfg.ChatMaxLen = d.ChatMaxLen
	}
	if cfg.ChatHistoryLimit <= 0 {
		cfg.ChatHistoryLimit = d.ChatHistoryLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, gate: ev, pub: pub, cfg: cfg, log: log}
}

// Send posts content as userID. The user must not be banned and must respect
// the chat cooldown. color is an optional #rrggbb username color.
func (s *Service) Send(ctx context.Context, userID int64, content, color string, now time.Time) (*model.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Invalid("content must not be empty")
	}
	if utf8.RuneCountInString(content) > s.cfg.ChatMaxLen {
		return nil, apperr.Invalid("content exceeds %d characters", s.cfg.ChatMaxLen)
	}
	if color == "" {
		color = defaultColor
	} else if !validColor(color) {
		return nil, apperr.Invalid("username color must be #rrggbb")
	}

	var msg *model.ChatMessage
	action := gate.ChatMessage(s.cfg.ChatCooldown).Require(account.DenyBanned)
	err := s.gate.TryExecute(ctx, userID, action, now, func(tx *gorm.DB, u *model.User) error {
		if role := gate.DeriveRole(u, now); role != u.Role {
			if err := tx.Model(&model.User{}).Where("id = ?", u.ID).Update("role", role).Error; err != nil {
				return apperr.Internal(err)
			}
			u.Role = role
		}
		uid := u.ID
		msg = &model.ChatMessage{
			UserID:        &uid,
			Username:      u.Username,
			Role:          u.Role,
			UsernameColor: color,
			Content:       content,
			MessageType:   typeText,
			CreatedAt:     now.UTC(),
		}
		if err := tx.Create(msg).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, notify.GlobalChatChannel, notify.EventChatMessage, msg)
	return msg, nil
}

func validColor(c string) bool {
	if len(c) != 7 || c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}

// List returns messages newer than since in chronological order, or the latest
// history page when since is nil.
func (s *Service) List(ctx context.Context, since *time.Time) ([]model.ChatMessage, error) {
	msgs := []model.ChatMessage{}
	q := s.db.WithContext(ctx)
	if since != nil {
		if err := q.Where("created_at > ?", since.UTC()).Order("created_at ASC, id ASC").Find(&msgs).Error; err != nil {
			return nil, apperr.Internal(err)
		}
		return msgs, nil
	}
	if err := q.Order("created_at DESC, id DESC").Limit(s.cfg.ChatHistoryLimit).Find(&msgs).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Delete removes one message.
func (s *Service) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.ChatMessage{}, id)
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	s.pub.Publish(ctx, notify.GlobalChatChannel, notify.EventChatDeleted, map[string]interface{}{"id": id})
	return nil
}

// Clear removes every message and returns how many were deleted.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&model.ChatMessage{})
	if res.Error != nil {
		return 0, apperr.Internal(res.Error)
	}
	s.pub.Publish(ctx, notify.GlobalChatChannel, notify.EventChatCleared, nil)
	return res.RowsAffected, nil
}

// PruneOlderThan removes messages created before cutoff.
func (s *Service) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&model.ChatMessage{})
	if res.Error != nil {
		return 0, apperr.Internal(res.Error)
	}
	if res.RowsAffected > 0 {
		s.log.Info("chat: pruned old messages", zap.Int64("count", res.RowsAffected), zap.Time("cutoff", cutoff))
	}
	return res.RowsAffected, nil
}
