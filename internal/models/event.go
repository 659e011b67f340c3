package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	Name             string    `gorm:"not null"`
	Description      string    `gorm:"not null"`
	Date             time.Time `gorm:"not null"`
	Venue            string    `gorm:"not null"`
	OrganizerAddress string    `gorm:"column:organizer_address;not null"`
	// ContractAddress is empty until the organizer signs the on-chain
	// creation transaction and reports the deployed module address back.
	ContractAddress string `gorm:"column:contract_address"`
	IPFSMetadataURI string `gorm:"column:ipfs_metadata_uri;not null"`
	ImageURL        string `gorm:"column:image_url;not null"`
}

func (event *Event) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
