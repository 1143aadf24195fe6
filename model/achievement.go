package model

import "time"

// Achievement is an unlockable badge.
type Achievement struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"size:255;not null" json:"description"`
	Icon        string `gorm:"size:100;not null" json:"icon"`
	Rarity      string `gorm:"size:50;not null;default:common" json:"rarity"`
}

// UserAchievement records that a user unlocked an achievement, once.
type UserAchievement struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        int64     `gorm:"uniqueIndex:idx_user_achievement;not null" json:"user_id"`
	AchievementID int64     `gorm:"uniqueIndex:idx_user_achievement;not null" json:"achievement_id"`
	UnlockedAt    time.Time `gorm:"not null" json:"unlocked_at"`
}

// AchievementReaction is one user's reaction to an unlocked achievement.
type AchievementReaction struct {
	ID                int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            int64  `gorm:"uniqueIndex:idx_reaction_user;not null" json:"user_id"`
	UserAchievementID int64  `gorm:"uniqueIndex:idx_reaction_user;index;not null" json:"user_achievement_id"`
	ReactionType      string `gorm:"size:50;not null;default:like" json:"reaction_type"`
}
