package model

import "time"

// Tier labels, lowest first. Admins always carry RoleNetherite.
const (
	RoleWood      = "Pico de madera"
	RoleStone     = "Pico de Piedra"
	RoleIron      = "Pico de Hierro"
	RoleGold      = "Pico de Oro"
	RoleDiamond   = "Pico de Diamante"
	RoleNetherite = "Pico de Netherite"
)

// DefaultStatus is the presence text of a freshly registered user.
const DefaultStatus = "Disponible"

// User is a launcher account.
type User struct {
	ID               int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username         string    `gorm:"uniqueIndex;size:80;not null" json:"username"`
	PasswordHash     *string   `gorm:"size:120" json:"-"` // nil for social logins
	Provider         *string   `gorm:"size:50" json:"provider,omitempty"`
	SocialID         *string   `gorm:"uniqueIndex;size:200" json:"-"`
	AvatarURL        string    `gorm:"size:512" json:"avatar_url"`
	RegistrationDate time.Time `gorm:"not null" json:"registration_date"`
	Role             string    `gorm:"size:50;not null;default:Pico de madera" json:"role"`
	IsAdmin          bool      `gorm:"not null;default:false" json:"is_admin"`
	Coins            int64     `gorm:"column:gcoins;not null;default:0;check:chk_users_gcoins,gcoins >= 0" json:"gcoins"`
	Status           string    `gorm:"size:50;not null;default:Disponible" json:"status"`

	IsBanned    bool       `gorm:"not null;default:false" json:"is_banned"`
	BannedUntil *time.Time `json:"banned_until"`
	BanReason   *string    `gorm:"size:255" json:"ban_reason"`

	// Rate gate stamps; written only inside the gated transaction.
	LastMessageAt     *time.Time `json:"-"`
	LastDailyRewardAt *time.Time `json:"-"`
	LastWallPostAt    *time.Time `json:"-"`

	// Version is bumped by every gated write and used as a compare-and-set guard.
	Version int64 `gorm:"not null;default:0" json:"-"`
}
