// Package account is the user directory: lookups, credentials, bans, coin
// balances and tier upkeep.
package account

import (
	"context"
	"errors"
	"strings"
	"time"

	dbadapter "github.com/glauncher/glauncher-api/db"
	"github.com/glauncher/glauncher-api/launcher/apperr"
	"github.com/glauncher/glauncher-api/launcher/gate"
	"github.com/glauncher/glauncher-api/launcher/notify"
	"github.com/glauncher/glauncher-api/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ProviderLocal marks accounts that log in with a password.
const ProviderLocal = "glauncher"

// AllowedStatuses lists the presence texts a user may pick.
var AllowedStatuses = []string{model.DefaultStatus, "Ausente", "Jugando"}

// Directory reads and mutates users.
type Directory struct {
	db         *gorm.DB
	pub        *notify.Publisher
	log        *zap.Logger
	bcryptCost int
}

// NewDirectory creates a Directory. pub may be nil.
func NewDirectory(db *gorm.DB, pub *notify.Publisher, log *zap.Logger) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{db: db, pub: pub, log: log, bcryptCost: bcrypt.DefaultCost}
}

// Get returns the user with the given id.
func (d *Directory) Get(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := d.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &u, nil
}

// GetByUsername returns the user with the given username.
func (d *Directory) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := d.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &u, nil
}

// GetMany returns the users with the given ids, keyed by id. Missing ids are
// absent from the map.
func (d *Directory) GetMany(ctx context.Context, ids []int64) (map[int64]*model.User, error) {
	out := make(map[int64]*model.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []model.User
	if err := d.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// List returns every user ordered by id.
func (d *Directory) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := d.db.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	return users, nil
}

// IsCurrentlyBanned reports whether a ban is in force at now. An expired ban
// reads as not banned but the stored flag is left as is.
func IsCurrentlyBanned(u *model.User, now time.Time) bool {
	if !u.IsBanned {
		return false
	}
	return u.BannedUntil == nil || now.Before(*u.BannedUntil)
}

// BanRemaining returns how long a temporary ban still runs. It is zero for
// users not currently banned and for permanent bans.
func BanRemaining(u *model.User, now time.Time) time.Duration {
	if !IsCurrentlyBanned(u, now) || u.BannedUntil == nil {
		return 0
	}
	return u.BannedUntil.Sub(now)
}

// BanError builds the error returned to a banned user.
func BanError(u *model.User) error {
	e := &apperr.BannedError{Until: u.BannedUntil}
	if u.BanReason != nil {
		e.Reason = *u.BanReason
	}
	return e
}

// DenyBanned is a gate check that rejects users whose ban is in force.
func DenyBanned(u *model.User, now time.Time) error {
	if IsCurrentlyBanned(u, now) {
		return BanError(u)
	}
	return nil
}

// OwnedCosmetics returns the ids of the cosmetic items the user owns.
func (d *Directory) OwnedCosmetics(ctx context.Context, userID int64) ([]int64, error) {
	ids := []int64{}
	err := d.db.WithContext(ctx).Model(&model.UserCosmetic{}).
		Where("user_id = ?", userID).
		Order("cosmetic_item_id ASC").
		Pluck("cosmetic_item_id", &ids).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return ids, nil
}

// RefreshRole recomputes the user's tier and persists it when it changed.
// u is updated in place.
func (d *Directory) RefreshRole(ctx context.Context, u *model.User, now time.Time) (string, error) {
	role := gate.DeriveRole(u, now)
	if role == u.Role {
		return role, nil
	}
	err := d.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", u.ID).
		Update("role", role).Error
	if err != nil {
		return u.Role, apperr.Internal(err)
	}
	old := u.Role
	u.Role = role
	d.pub.ToUser(ctx, u.ID, notify.EventRoleChanged, map[string]interface{}{"old": old, "role": role})
	return role, nil
}

// SetBan bans targetID for durationHours, or lifts the ban when durationHours
// is zero. Only admins may ban and admins cannot be banned.
func (d *Directory) SetBan(ctx context.Context, actorID, targetID int64, durationHours int, reason string, now time.Time) (*model.User, error) {
	if durationHours < 0 {
		return nil, apperr.Invalid("duration_hours must not be negative")
	}
	if err := d.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"is_banned":    false,
		"banned_until": nil,
		"ban_reason":   nil,
	}
	if durationHours > 0 {
		fields["is_banned"] = true
		fields["banned_until"] = now.Add(time.Duration(durationHours) * time.Hour)
		if reason != "" {
			fields["ban_reason"] = reason
		}
	}

	var target model.User
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).
			Where("id = ? AND is_admin = ?", targetID, false).
			Updates(fields)
		if res.Error != nil {
			return apperr.Internal(res.Error)
		}
		if err := tx.First(&target, targetID).Error; err != nil {
			return notFoundOr(err)
		}
		if target.IsAdmin {
			return apperr.ErrForbidden
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if target.IsBanned {
		d.pub.ToUser(ctx, target.ID, notify.EventBanned, map[string]interface{}{
			"banned_until": target.BannedUntil,
			"reason":       reason,
		})
	} else {
		d.pub.ToUser(ctx, target.ID, notify.EventUnbanned, nil)
	}
	d.log.Info("ban updated",
		zap.Int64("actor_id", actorID),
		zap.Int64("target_id", targetID),
		zap.Int("duration_hours", durationHours))
	return &target, nil
}

// AdjustCoins adds delta to the user's balance and returns the new balance.
// A debit that would go negative fails with ErrInsufficientFunds.
func (d *Directory) AdjustCoins(ctx context.Context, userID, delta int64) (int64, error) {
	var balance int64
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		balance, err = AdjustCoinsTx(tx, userID, delta)
		return err
	})
	if err != nil {
		return 0, err
	}
	d.pub.ToUser(ctx, userID, notify.EventCoinsChanged, map[string]interface{}{"gcoins": balance})
	return balance, nil
}

// AdjustCoinsTx is AdjustCoins inside the caller's transaction. Only the
// conditional UPDATE moves coins; when it matches no row the debit is refused
// even if a later read would show enough balance.
func AdjustCoinsTx(tx *gorm.DB, userID, delta int64) (int64, error) {
	res := tx.Model(&model.User{}).
		Where("id = ? AND gcoins + ? >= 0", userID, delta).
		Update("gcoins", gorm.Expr("gcoins + ?", delta))
	if res.Error != nil {
		return 0, apperr.Internal(res.Error)
	}

	var u model.User
	if err := tx.Select("id", "gcoins").First(&u, userID).Error; err != nil {
		return 0, notFoundOr(err)
	}
	// MySQL reports zero affected rows for an unchanged value.
	if res.RowsAffected == 0 && delta != 0 {
		return u.Coins, apperr.ErrInsufficientFunds
	}
	return u.Coins, nil
}

// Register creates a local account.
func (d *Directory) Register(ctx context.Context, username, password string, now time.Time) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperr.Invalid("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.bcryptCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	h, provider := string(hash), ProviderLocal
	u := &model.User{
		Username:         username,
		PasswordHash:     &h,
		Provider:         &provider,
		RegistrationDate: now,
		Role:             model.RoleWood,
		Status:           model.DefaultStatus,
	}
	if err := d.db.WithContext(ctx).Create(u).Error; err != nil {
		if dbadapter.IsUniqueViolation(err) {
			return nil, apperr.ErrConflict
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

// Authenticate checks a username/password pair. Social-only accounts and bad
// credentials fail with ErrUnauthorized; a banned user gets *apperr.BannedError.
func (d *Directory) Authenticate(ctx context.Context, username, password string, now time.Time) (*model.User, error) {
	u, err := d.GetByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == nil {
		return nil, apperr.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*u.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrUnauthorized
	}
	if IsCurrentlyBanned(u, now) {
		return nil, BanError(u)
	}
	return u, nil
}

// UpdateStatus sets the presence text shown to friends.
func (d *Directory) UpdateStatus(ctx context.Context, userID int64, status string) error {
	if !validStatus(status) {
		return apperr.Invalid("status %q is not allowed", status)
	}
	if _, err := d.Get(ctx, userID); err != nil {
		return err
	}
	err := d.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Update("status", status).Error
	if err != nil {
		return apperr.Internal(err)
	}
	d.pub.Publish(ctx, notify.GlobalPresenceChannel, notify.EventStatusUpdate, map[string]interface{}{
		"user_id": userID,
		"status":  status,
	})
	return nil
}

func validStatus(s string) bool {
	for _, a := range AllowedStatuses {
		if s == a {
			return true
		}
	}
	return false
}

// ProfileUpdate carries the optional fields of a profile change. Empty fields
// are left untouched.
type ProfileUpdate struct {
	Username        string
	Password        string
	PasswordConfirm string
	AvatarURL       string
}

// UpdateProfile applies a profile change.
func (d *Directory) UpdateProfile(ctx context.Context, userID int64, p ProfileUpdate) (*model.User, error) {
	fields := map[string]interface{}{}
	if name := strings.TrimSpace(p.Username); name != "" {
		fields["username"] = name
	}
	if p.Password != "" {
		if p.Password != p.PasswordConfirm {
			return nil, apperr.Invalid("passwords do not match")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), d.bcryptCost)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		fields["password_hash"] = string(hash)
	}
	if p.AvatarURL != "" {
		fields["avatar_url"] = p.AvatarURL
	}

	u, err := d.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return u, nil
	}
	if err := d.db.WithContext(ctx).Model(u).Updates(fields).Error; err != nil {
		if dbadapter.IsUniqueViolation(err) {
			return nil, apperr.ErrConflict
		}
		return nil, apperr.Internal(err)
	}
	return d.Get(ctx, userID)
}

// AdminUpdate carries the fields an admin may change on another user.
type AdminUpdate struct {
	Role    *string
	IsAdmin *bool
}

// UpdateByAdmin changes another user's role or admin flag.
func (d *Directory) UpdateByAdmin(ctx context.Context, actorID, targetID int64, upd AdminUpdate) (*model.User, error) {
	if err := d.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if upd.Role != nil {
		if !validRole(*upd.Role) {
			return nil, apperr.Invalid("unknown role %q", *upd.Role)
		}
		fields["role"] = *upd.Role
	}
	if upd.IsAdmin != nil {
		fields["is_admin"] = *upd.IsAdmin
	}

	u, err := d.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return u, nil
	}
	if err := d.db.WithContext(ctx).Model(u).Updates(fields).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	if upd.Role != nil {
		d.pub.ToUser(ctx, targetID, notify.EventRoleChanged, map[string]interface{}{"role": *upd.Role})
	}
	return d.Get(ctx, targetID)
}

func validRole(role string) bool {
	switch role {
	case model.RoleWood, model.RoleStone, model.RoleIron, model.RoleGold, model.RoleDiamond, model.RoleNetherite:
		return true
	}
	return false
}

// WipeResult reports how much data a wipe removed.
type WipeResult struct {
	Users    int64 `json:"users"`
	Messages int64 `json:"messages"`
}

// WipeNonAdmins deletes every non-admin user together with their friendships,
// private messages, wall posts, achievements and owned cosmetics, and clears
// the chat.
func (d *Directory) WipeNonAdmins(ctx context.Context, actorID int64) (WipeResult, error) {
	var out WipeResult
	if err := d.requireAdmin(ctx, actorID); err != nil {
		return out, err
	}
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		victims := func() *gorm.DB {
			return tx.Model(&model.User{}).Select("id").Where("is_admin = ?", false)
		}

		if err := tx.Where("user_id IN (?)", victims()).Delete(&model.UserCosmetic{}).Error; err != nil {
			return err
		}
		if err := tx.Where("requester_id IN (?) OR addressee_id IN (?)", victims(), victims()).
			Delete(&model.Friendship{}).Error; err != nil {
			return err
		}
		if err := tx.Where("sender_id IN (?) OR recipient_id IN (?)", victims(), victims()).
			Delete(&model.PrivateMessage{}).Error; err != nil {
			return err
		}
		victimAchievements := tx.Model(&model.UserAchievement{}).Select("id").Where("user_id IN (?)", victims())
		if err := tx.Where("user_id IN (?) OR user_achievement_id IN (?)", victims(), victimAchievements).
			Delete(&model.AchievementReaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id IN (?)", victims()).Delete(&model.UserAchievement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id IN (?)", victims()).Delete(&model.WallMessage{}).Error; err != nil {
			return err
		}
		res := tx.Where("1 = 1").Delete(&model.ChatMessage{})
		if res.Error != nil {
			return res.Error
		}
		out.Messages = res.RowsAffected

		res = tx.Where("is_admin = ?", false).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		out.Users = res.RowsAffected
		return nil
	})
	if err != nil {
		return WipeResult{}, apperr.Internal(err)
	}
	d.pub.Publish(ctx, notify.GlobalChatChannel, notify.EventChatCleared, nil)
	d.log.Warn("all non-admin data wiped",
		zap.Int64("actor_id", actorID),
		zap.Int64("users", out.Users),
		zap.Int64("messages", out.Messages))
	return out, nil
}

func (d *Directory) requireAdmin(ctx context.Context, actorID int64) error {
	actor, err := d.Get(ctx, actorID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.ErrForbidden
	}
	if err != nil {
		return err
	}
	if !actor.IsAdmin {
		return apperr.ErrForbidden
	}
	return nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.ErrNotFound
	}
	return apperr.Internal(err)
}
