package model

import (
	"time"

	"gorm.io/gorm"
)

// Friendship status values.
const (
	FriendshipPending  = "pending"
	FriendshipAccepted = "accepted"
)

// Friendship is a directed relationship edge. RequesterID records who initiated,
// even after acceptance. PairLow/PairHigh hold the unordered pair so the unique
// index rejects a second edge in either direction, whatever its status.
type Friendship struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RequesterID int64     `gorm:"index;not null" json:"requester_id"`
	AddresseeID int64     `gorm:"index;not null" json:"addressee_id"`
	PairLow     int64     `gorm:"uniqueIndex:idx_friendship_pair;not null" json:"-"`
	PairHigh    int64     `gorm:"uniqueIndex:idx_friendship_pair;not null" json:"-"`
	Status      string    `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate fills the canonical pair columns.
func (f *Friendship) BeforeCreate(_ *gorm.DB) error {
	f.PairLow, f.PairHigh = f.RequesterID, f.AddresseeID
	if f.PairLow > f.PairHigh {
		f.PairLow, f.PairHigh = f.PairHigh, f.PairLow
	}
	return nil
}
