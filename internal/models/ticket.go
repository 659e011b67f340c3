package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket is the credential record for a single on-chain ticket object.
// TicketObjectAddress and QRToken are both unique: a ticket object can
// only ever have one live credential, and a credential string maps back
// to exactly one ticket. IsCheckedIn only ever transitions false -> true.
type Ticket struct {
	gorm.Model
	ID                   uuid.UUID `gorm:"type:uuid;primary_key"`
	TicketObjectAddress  string    `gorm:"column:ticket_object_address;uniqueIndex;not null"`
	EventContractAddress string    `gorm:"column:event_contract_address;not null"`
	OwnerAddress         string    `gorm:"column:owner_address;not null"`
	QRToken              string    `gorm:"column:qr_token;uniqueIndex;not null"`
	IsCheckedIn          bool      `gorm:"column:is_checked_in;not null;default:false"`
}

func (ticket *Ticket) BeforeCreate(tx *gorm.DB) (err error) {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	return
}
