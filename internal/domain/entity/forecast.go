package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Forecast is the history record of one generation attempt. A record is
// created exactly once per attempt and never mutated afterwards, except to
// attach FileID once after a successful render and upload. A nil FileID
// means the attempt produced no report file.
type Forecast struct {
	ID        uuid.UUID  `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Location  string     `gorm:"column:location;size:512;not null" json:"location"`
	Latitude  float64    `gorm:"column:latitude;not null" json:"latitude"`
	Longitude float64    `gorm:"column:longitude;not null" json:"longitude"`
	FileID    *uuid.UUID `gorm:"column:file_id;type:varchar(36)" json:"file_id"`
	File      *File      `gorm:"foreignKey:FileID;references:ID" json:"file,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;not null;<-:create" json:"created_at"`
}

// TableName specifies the table name for Forecast.
func (Forecast) TableName() string { return "forecasts" }

// BeforeCreate assigns the id and creation timestamp when unset.
func (f *Forecast) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	return nil
}
