// Package store persists ticket credentials. The interface is small on
// purpose: issuance needs get and unique insert, redemption needs get
// and a conditional check-in update. The check-in flag is the audit
// trail of physical attendance, so nothing here ever resets it.
package store

import (
	"context"
	"errors"

	"github.com/alisha-sapkal/aptos/internal/models"
)

var (
	// ErrNotFound is returned when no credential exists for the ticket.
	ErrNotFound = errors.New("ticket not found")
	// ErrAlreadyExists is returned by Insert when another credential
	// holds the same ticket object address or token.
	ErrAlreadyExists = errors.New("ticket already exists")
	// ErrAlreadyCheckedIn is returned by MarkCheckedIn when the
	// credential was already checked in, including when a concurrent
	// redemption won the race.
	ErrAlreadyCheckedIn = errors.New("ticket already checked in")
)

type TicketStore interface {
	FindByObjectAddress(ctx context.Context, objectAddress string) (*models.Ticket, error)
	Insert(ctx context.Context, ticket *models.Ticket) error
	// MarkCheckedIn flips is_checked_in to true only if it is currently
	// false. The precondition check and the write are a single atomic
	// storage operation so two concurrent redemptions of the same
	// ticket cannot both succeed.
	MarkCheckedIn(ctx context.Context, objectAddress string) error
}
