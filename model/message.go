package model

import "time"

// PrivateMessage is a direct message between two friends.
type PrivateMessage struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID    int64     `gorm:"index;not null" json:"sender_id"`
	RecipientID int64     `gorm:"index;not null" json:"recipient_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	MessageType string    `gorm:"size:10;not null;default:text" json:"type"`
	IsRead      bool      `gorm:"not null;default:false" json:"is_read"`
	CreatedAt   time.Time `gorm:"index" json:"timestamp"`
}

// WallMessage is a post on the public community wall.
type WallMessage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *int64    `gorm:"index" json:"user_id"`
	Username  string    `gorm:"size:80;not null" json:"username"`
	Content   string    `gorm:"size:200;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`
}

// TableName keeps the historical table name of the wall.
func (WallMessage) TableName() string { return "launch_messages" }
