// Package shop sells cosmetics for gcoins and hands out the daily reward.
package shop

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/glauncher/glauncher-api/config"
	dbadapter "github.com/glauncher/glauncher-api/db"
	"github.com/glauncher/glauncher-api/launcher/account"
	"github.com/glauncher/glauncher-api/launcher/apperr"
	"github.com/glauncher/glauncher-api/launcher/gate"
	"github.com/glauncher/glauncher-api/launcher/notify"
	"github.com/glauncher/glauncher-api/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles purchases and the daily reward.
type Service struct {
	db     *gorm.DB
	gate   *gate.Evaluator
	pub    *notify.Publisher
	window time.Duration
	amount int64
	log    *zap.Logger
}

// NewService creates a Service. Zero reward settings fall back to the defaults.
func NewService(db *gorm.DB, ev *gate.Evaluator, pub *notify.Publisher, cfg config.LauncherConfig, log *zap.Logger) *Service {
	d := config.LauncherConfig{}.Defaults()
	if cfg.DailyRewardWindow <= 0 {
		cfg.DailyRewardWindow = d.DailyRewardWindow
	}
	if cfg.DailyRewardAmount <= 0 {
		cfg.DailyRewardAmount = d.DailyRewardAmount
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		db:     db,
		gate:   ev,
		pub:    pub,
		window: cfg.DailyRewardWindow,
		amount: cfg.DailyRewardAmount,
		log:    log,
	}
}

// RewardAmount is the gcoins granted per daily claim.
func (s *Service) RewardAmount() int64 { return s.amount }

// ClaimDailyReward credits the daily reward once per window and returns the
// new balance.
func (s *Service) ClaimDailyReward(ctx context.Context, userID int64, now time.Time) (int64, error) {
	var balance int64
	err := s.gate.TryExecute(ctx, userID, gate.DailyReward(s.window), now, func(tx *gorm.DB, u *model.User) error {
		var err error
		balance, err = account.AdjustCoinsTx(tx, u.ID, s.amount)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.pub.ToUser(ctx, userID, notify.EventCoinsChanged, map[string]interface{}{"gcoins": balance})
	return balance, nil
}

// ListItems returns the active catalogue.
func (s *Service) ListItems(ctx context.Context) ([]model.CosmeticItem, error) {
	items := []model.CosmeticItem{}
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id ASC").Find(&items).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return items, nil
}

// CreateItem adds an active item to the catalogue.
func (s *Service) CreateItem(ctx context.Context, item model.CosmeticItem) (*model.CosmeticItem, error) {
	item.ID = 0
	item.Name = strings.TrimSpace(item.Name)
	switch {
	case item.Name == "", item.Description == "", item.Category == "":
		return nil, apperr.Invalid("name, description and category are required")
	case item.ImagePath == "", item.ModelPath == "":
		return nil, apperr.Invalid("image_path and model_path are required")
	case item.Price < 0:
		return nil, apperr.Invalid("price must not be negative")
	}
	if item.Rarity == "" {
		item.Rarity = "common"
	}
	item.IsActive = true
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	s.log.Info("shop: item created", zap.Int64("item_id", item.ID), zap.String("name", item.Name))
	return &item, nil
}

// Purchase buys an active item for userID and returns the new balance. Owning
// the item already fails with ErrConflict and a short balance with
// ErrInsufficientFunds; either way nothing is charged.
func (s *Service) Purchase(ctx context.Context, userID, itemID int64) (*model.CosmeticItem, int64, error) {
	var item model.CosmeticItem
	var balance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND is_active = ?", itemID, true).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.ErrNotFound
			}
			return apperr.Internal(err)
		}
		if err := tx.Create(&model.UserCosmetic{UserID: userID, CosmeticItemID: item.ID}).Error; err != nil {
			if dbadapter.IsUniqueViolation(err) {
				return apperr.ErrConflict
			}
			return apperr.Internal(err)
		}
		var err error
		balance, err = account.AdjustCoinsTx(tx, userID, -item.Price)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	s.pub.ToUser(ctx, userID, notify.EventCoinsChanged, map[string]interface{}{"gcoins": balance})
	s.log.Info("shop: purchase",
		zap.Int64("user_id", userID),
		zap.Int64("item_id", item.ID),
		zap.Int64("price", item.Price))
	return &item, balance, nil
}
