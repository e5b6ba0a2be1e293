// Package entity defines the persistent entities of skycast.
package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is the metadata record of a stored report file. Its id doubles as
// the blob key, so the record and the blob payload are created and deleted
// together; absence of one while the other exists is an inconsistency the
// calling service must not produce.
type File struct {
	ID        uuid.UUID `gorm:"column:id;type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"column:name;size:256;not null" json:"name"`
	Size      int64     `gorm:"column:size;not null" json:"size"`
	CreatedAt time.Time `gorm:"column:created_at;not null;<-:create" json:"created_at"`
}

// TableName specifies the table name for File.
func (File) TableName() string { return "files" }

// BeforeCreate assigns the id and creation timestamp when unset.
func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	return nil
}
