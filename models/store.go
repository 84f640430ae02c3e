package models

// StoreItem is a prize pilots buy with mana.
type StoreItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:160;not null" json:"name"`
	Description string  `gorm:"type:text;not null" json:"description"`
	CostMana    int     `gorm:"not null" json:"cost_mana"`
	Stock       int     `gorm:"default:0;not null" json:"stock"`
	ImageURL    *string `gorm:"size:512" json:"image_url,omitempty"`

	Timestamps
}

// OrderStatus is the HR review state of a store order.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderApproved OrderStatus = "approved"
	OrderRejected OrderStatus = "rejected"
)

// Order is a pilot's purchase awaiting hand-off by HR. Mana is deducted at
// creation time, not at approval.
type Order struct {
	ID      uint        `gorm:"primaryKey" json:"id"`
	UserID  uint        `gorm:"not null;index" json:"user_id"`
	ItemID  uint        `gorm:"not null;index" json:"item_id"`
	Status  OrderStatus `gorm:"size:16;default:'pending';not null" json:"status"`
	Comment *string     `gorm:"type:text" json:"comment,omitempty"`

	Item *StoreItem `gorm:"foreignKey:ItemID" json:"item,omitempty"`
	User *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Timestamps
}
