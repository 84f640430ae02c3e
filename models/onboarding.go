package models

// OnboardingSlide is one screen of the welcome carousel.
type OnboardingSlide struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	Order    int     `gorm:"not null;uniqueIndex" json:"order"`
	Title    string  `gorm:"size:160;not null" json:"title"`
	Body     string  `gorm:"type:text;not null" json:"body"`
	ImageURL *string `gorm:"size:512" json:"image_url,omitempty"`

	Timestamps
}

// OnboardingState remembers how far a pilot got through the carousel.
type OnboardingState struct {
	ID                 uint `gorm:"primaryKey" json:"id"`
	UserID             uint `gorm:"not null;uniqueIndex" json:"user_id"`
	LastCompletedOrder int  `gorm:"default:0;not null" json:"last_completed_order"`
	IsCompleted        bool `gorm:"default:false;not null" json:"is_completed"`

	Timestamps
}
