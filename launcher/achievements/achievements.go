// Package achievements manages unlockable badges and the reactions friends
// leave on them.
package achievements

import (
	"context"
	"errors"
	"strings"
	"time"

	dbadapter "github.com/glauncher/glauncher-api/db"
	"github.com/glauncher/glauncher-api/launcher/apperr"
	"github.com/glauncher/glauncher-api/launcher/notify"
	"github.com/glauncher/glauncher-api/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultReaction is used when a reaction type is not given.
const DefaultReaction = "like"

// Unlocked is an achievement a user holds, with its reaction count.
type Unlocked struct {
	ID            int64     `json:"id"`
	AchievementID int64     `json:"achievement_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Icon          string    `json:"icon"`
	Rarity        string    `json:"rarity"`
	UnlockedAt    time.Time `json:"unlocked_at"`
	Reactions     int64     `json:"reactions"`
}

// Reaction is the outcome of a toggle.
type Reaction struct {
	UserAchievementID int64 `json:"user_achievement_id"`
	Reacted           bool  `json:"reacted"`
	Count             int64 `json:"new_count"`
}

// Service manages achievements.
type Service struct {
	db  *gorm.DB
	pub *notify.Publisher
	log *zap.Logger
}

// NewService creates a Service. pub may be nil.
func NewService(db *gorm.DB, pub *notify.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, pub: pub, log: log}
}

// Create adds an achievement to the catalogue. Names are unique.
func (s *Service) Create(ctx context.Context, a model.Achievement) (*model.Achievement, error) {
	a.ID = 0
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" || a.Description == "" || a.Icon == "" {
		return nil, apperr.Invalid("name, description and icon are required")
	}
	if a.Rarity == "" {
		a.Rarity = "common"
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		if dbadapter.IsUniqueViolation(err) {
			return nil, apperr.ErrConflict
		}
		return nil, apperr.Internal(err)
	}
	return &a, nil
}

// Catalogue lists every achievement.
func (s *Service) Catalogue(ctx context.Context) ([]model.Achievement, error) {
	out := []model.Achievement{}
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// Grant unlocks achievementID for userID. A second grant is a Conflict.
func (s *Service) Grant(ctx context.Context, userID, achievementID int64, now time.Time) (*model.UserAchievement, error) {
	var a model.Achievement
	if err := s.db.WithContext(ctx).First(&a, achievementID).Error; err != nil {
		return nil, notFoundOr(err)
	}
	var u model.User
	if err := s.db.WithContext(ctx).Select("id").First(&u, userID).Error; err != nil {
		return nil, notFoundOr(err)
	}

	ua := &model.UserAchievement{UserID: userID, AchievementID: achievementID, UnlockedAt: now.UTC()}
	if err := s.db.WithContext(ctx).Create(ua).Error; err != nil {
		if dbadapter.IsUniqueViolation(err) {
			return nil, apperr.ErrConflict
		}
		return nil, apperr.Internal(err)
	}

	payload := map[string]interface{}{
		"user_achievement_id": ua.ID,
		"user_id":             userID,
		"achievement":         a,
	}
	s.pub.ToUser(ctx, userID, notify.EventAchievementUnlocked, payload)
	s.pub.Publish(ctx, notify.DashboardChannel, notify.EventAchievementUnlocked, payload)
	return ua, nil
}

// ListForUser returns userID's unlocked achievements, oldest first.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Unlocked, error) {
	out := []Unlocked{}
	err := s.db.WithContext(ctx).
		Table("user_achievements AS ua").
		Select(`ua.id, ua.achievement_id, a.name, a.description, a.icon, a.rarity, ua.unlocked_at,
			(SELECT COUNT(*) FROM achievement_reactions r WHERE r.user_achievement_id = ua.id) AS reactions`).
		Joins("JOIN achievements a ON a.id = ua.achievement_id").
		Where("ua.user_id = ?", userID).
		Order("ua.unlocked_at ASC, ua.id ASC").
		Scan(&out).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

// React toggles userID's reaction on an unlocked achievement and broadcasts
// the new count to the dashboard.
func (s *Service) React(ctx context.Context, userID, userAchievementID int64, reactionType string) (*Reaction, error) {
	if reactionType == "" {
		reactionType = DefaultReaction
	}
	if len(reactionType) > 50 {
		return nil, apperr.Invalid("reaction_type exceeds 50 characters")
	}

	out := &Reaction{UserAchievementID: userAchievementID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ua model.UserAchievement
		if err := tx.Select("id").First(&ua, userAchievementID).Error; err != nil {
			return notFoundOr(err)
		}

		res := tx.Where("user_id = ? AND user_achievement_id = ?", userID, userAchievementID).
			Delete(&model.AchievementReaction{})
		if res.Error != nil {
			return apperr.Internal(res.Error)
		}
		if res.RowsAffected == 0 {
			err := tx.Create(&model.AchievementReaction{
				UserID:            userID,
				UserAchievementID: userAchievementID,
				ReactionType:      reactionType,
			}).Error
			if dbadapter.IsUniqueViolation(err) {
				return apperr.ErrConflict
			}
			if err != nil {
				return apperr.Internal(err)
			}
			out.Reacted = true
		}

		if err := tx.Model(&model.AchievementReaction{}).
			Where("user_achievement_id = ?", userAchievementID).
			Count(&out.Count).Error; err != nil {
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(ctx, notify.DashboardChannel, notify.EventAchievementReaction, map[string]interface{}{
		"user_achievement_id": userAchievementID,
		"count":               out.Count,
	})
	return out, nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return apperr.Internal(err)
}
