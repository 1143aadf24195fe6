package model

import "time"

// ChatMessage is one line of the global launcher chat.
type ChatMessage struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        *int64    `gorm:"index" json:"user_id"`
	Username      string    `gorm:"size:80;not null" json:"username"`
	Role          string    `gorm:"size:50;not null" json:"role"`
	UsernameColor string    `gorm:"size:7" json:"username_color"`
	Content       string    `gorm:"size:500;not null" json:"content"`
	MessageType   string    `gorm:"size:10;not null;default:text" json:"type"`
	CreatedAt     time.Time `gorm:"index" json:"timestamp"`
}
