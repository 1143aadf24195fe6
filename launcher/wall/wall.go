// Package wall is the public community wall shown on the launcher dashboard.
package wall

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
	maxContent  = 200
	maxPageSize = 50
)

// Page is one page of wall posts, newest first.
type Page struct {
	Messages []model.WallMessage `json:"messages"`
	HasMore  bool                `json:"has_more"`
}

// Service posts to and reads the wall.
type Service struct {
	db       *gorm.DB
	gate     *gate.Evaluator
	pub      *notify.Publisher
	cooldown time.Duration
	pageSize int
	log      *zap.Logger
}

// NewService creates a Service. Zero values in cfg fall back to the defaults.
func NewService(db *gorm.DB, ev *gate.Evaluator, pub *notify.Publisher, cfg config.LauncherConfig, log *zap.Logger) *Service {
	d := config.LauncherConfig{}.Defaults()
	if cfg.WallCooldown <= 0 {
		cfg.WallCooldown = d.WallCooldown
	}
	if cfg.WallPageSize <= 0 {
		cfg.WallPageSize = d.WallPageSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:       db,
		gate:     ev,
		pub:      pub,
		cooldown: cfg.WallCooldown,
		pageSize: cfg.WallPageSize,
		log:      log,
	}
}

// Post publishes content under userID's name, at most once per cooldown.
func (s *Service) Post(ctx context.Context, userID int64, content string, now time.Time) (*model.WallMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Invalid("content must not be empty")
	}
	if utf8.RuneCountInString(content) > maxContent {
		return nil, apperr.Invalid("content exceeds %d characters", maxContent)
	}

	var msg *model.WallMessage
	action := gate.WallPost(s.cooldown).Require(account.DenyBanned)
	err := s.gate.TryExecute(ctx, userID, action, now, func(tx *gorm.DB, u *model.User) error {
		uid := u.ID
		msg = &model.WallMessage{
			UserID:    &uid,
			Username:  u.Username,
			Content:   content,
			CreatedAt: now.UTC(),
		}
		if err := tx.Create(msg).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, notify.WallChannel, notify.EventWallMessage, msg)
	return msg, nil
}

// List returns the 1-based page of posts. limit <= 0 uses the configured page
// size; larger limits are capped.
func (s *Service) List(ctx context.Context, page, limit int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = s.pageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (page - 1) * limit

	var total int64
	if err := s.db.WithContext(ctx).Model(&model.WallMessage{}).Count(&total).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	msgs := []model.WallMessage{}
	err := s.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &Page{Messages: msgs, HasMore: int64(offset+len(msgs)) < total}, nil
}

// Delete removes one post.
func (s *Service) Delete(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.WallMessage{}, id)
	if res.Error != nil {
		return apperr.Internal(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	s.pub.Publish(ctx, notify.WallChannel, notify.EventWallDeleted, map[string]interface{}{"id": id})
	return nil
}
