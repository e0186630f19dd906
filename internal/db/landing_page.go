package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LandingPage stores one published page document keyed by slug.
type LandingPage struct {
	ID          string         `gorm:"type:varchar(36);primaryKey"`
	Slug        string         `gorm:"size:63;uniqueIndex;not null"`
	Title       string         `gorm:"not null"`
	Data        datatypes.JSON `gorm:"not null"`
	CheckoutURL *string
	CreatedAt   time.Time
	UpdatedAt   time.Time `gorm:"index"`
}

// TableName keeps the table name stable across drivers.
func (LandingPage) TableName() string {
	return "landing_pages"
}

// BeforeCreate assigns a random identifier.
func (p *LandingPage) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}
