package model

// CosmeticItem is a shop entry bought with gcoins.
type CosmeticItem struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:255;not null" json:"description"`
	Price       int64  `gorm:"not null" json:"price"`
	Rarity      string `gorm:"size:50;not null;default:common" json:"rarity"`
	Category    string `gorm:"size:50;not null" json:"category"`
	ImagePath   string `gorm:"size:255;not null" json:"image_url"`
	ModelPath   string `gorm:"size:255;not null" json:"-"`
	IsActive    bool   `gorm:"not null" json:"-"`
}

// UserCosmetic records ownership; the composite key allows one copy per user.
type UserCosmetic struct {
	UserID         int64 `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CosmeticItemID int64 `gorm:"primaryKey;autoIncrement:false" json:"cosmetic_item_id"`
}
