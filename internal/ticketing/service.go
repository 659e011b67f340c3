// Package ticketing implements the credential lifecycle: minting the QR
// credential for an on-chain ticket and redeeming it at the door. This
// is the only place with multi-step business logic; the codec, store and
// ledger packages stay single-purpose underneath it.
package ticketing

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/alisha-sapkal/aptos/internal/ledger"
	"github.com/alisha-sapkal/aptos/internal/models"
	"github.com/alisha-sapkal/aptos/internal/store"
	"github.com/alisha-sapkal/aptos/internal/token"
)

// ErrInvalidInput is returned by Issue before any side effect when a
// required field is empty.
var ErrInvalidInput = errors.New("ticket, event and owner addresses are required")

// Reason explains why a redemption was rejected. Empty means accepted.
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonInvalidToken      Reason = "invalid_token"
	ReasonTokenExpired      Reason = "token_expired"
	ReasonUnknownTicket     Reason = "unknown_ticket"
	ReasonAlreadyCheckedIn  Reason = "already_checked_in"
	ReasonLedgerUnavailable Reason = "ledger_unavailable"
	ReasonOwnershipMismatch Reason = "ownership_mismatch"
)

type Result struct {
	Valid  bool
	Reason Reason
}

// Service issues and redeems ticket credentials. All dependencies are
// injected so tests can substitute the store and the ledger.
type Service struct {
	store         store.TicketStore
	ledger        ledger.Ledger
	codec         *token.Codec
	ledgerTimeout time.Duration
}

func NewService(s store.TicketStore, l ledger.Ledger, c *token.Codec, ledgerTimeout time.Duration) *Service {
	return &Service{
		store:         s,
		ledger:        l,
		codec:         c,
		ledgerTimeout: ledgerTimeout,
	}
}

// Issue returns the credential for a ticket object, minting one on first
// call. Repeat calls for the same object address return the original
// record unchanged, so callers can retry freely and a ticket can never
// hold two live tokens. The returned bool reports whether this call
// created the record.
func (s *Service) Issue(ctx context.Context, ticketObjectAddress, eventContractAddress, ownerAddress string) (*models.Ticket, bool, error) {
	if ticketObjectAddress == "" || eventContractAddress == "" || ownerAddress == "" {
		return nil, false, ErrInvalidInput
	}

	existing, err := s.store.FindByObjectAddress(ctx, ticketObjectAddress)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("looking up ticket: %w", err)
	}

	qrToken, err := s.codec.Issue(ticketObjectAddress, ownerAddress)
	if err != nil {
		return nil, false, err
	}

	ticket := &models.Ticket{
		TicketObjectAddress:  ticketObjectAddress,
		EventContractAddress: eventContractAddress,
		OwnerAddress:         ownerAddress,
		QRToken:              qrToken,
	}
	if err := s.store.Insert(ctx, ticket); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a concurrent issuance for the same ticket; the
			// winner's record is the credential, return it.
			winner, ferr := s.store.FindByObjectAddress(ctx, ticketObjectAddress)
			if ferr != nil {
				return nil, false, fmt.Errorf("fetching winning ticket: %w", ferr)
			}
			return winner, false, nil
		}
		return nil, false, fmt.Errorf("persisting ticket: %w", err)
	}
	return ticket, true, nil
}

// Ticket returns the stored credential for a ticket object address.
func (s *Service) Ticket(ctx context.Context, ticketObjectAddress string) (*models.Ticket, error) {
	return s.store.FindByObjectAddress(ctx, ticketObjectAddress)
}

// Redeem validates a presented credential and commits the check-in. The
// pipeline short-circuits on the first failed stage and commits nothing
// unless every stage passes: signature and expiry, stored credential
// lookup, double-use guard, on-chain ownership, then the conditional
// check-in write. A ledger failure is never treated as ownership
// confirmation.
//
// A non-nil error means the store itself failed and no verdict could be
// reached; every business rejection comes back as a Result instead.
func (s *Service) Redeem(ctx context.Context, presented string) (Result, error) {
	claims, err := s.codec.Verify(presented)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return Result{Reason: ReasonTokenExpired}, nil
		}
		return Result{Reason: ReasonInvalidToken}, nil
	}

	ticket, err := s.store.FindByObjectAddress(ctx, claims.TicketObjectAddress)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Result{Reason: ReasonUnknownTicket}, nil
		}
		return Result{}, fmt.Errorf("looking up ticket: %w", err)
	}

	// Checked before the ledger call: a checked-in ticket must never
	// re-validate, even if ownership changed afterwards, and there is
	// no point querying the chain for it.
	if ticket.IsCheckedIn {
		// Distinct from cryptographic failures so double-use attempts
		// stand out in fraud monitoring.
		log.Printf("double-use attempt for ticket %s", ticket.TicketObjectAddress)
		return Result{Reason: ReasonAlreadyCheckedIn}, nil
	}

	ledgerCtx, cancel := context.WithTimeout(ctx, s.ledgerTimeout)
	defer cancel()
	currentOwner, err := s.ledger.OwnerOf(ledgerCtx, ticket.TicketObjectAddress)
	if err != nil {
		if errors.Is(err, ledger.ErrObjectNotFound) {
			// The node answered: the object is gone, so the recorded
			// owner provably no longer holds it.
			return Result{Reason: ReasonOwnershipMismatch}, nil
		}
		return Result{Reason: ReasonLedgerUnavailable}, nil
	}
	if currentOwner != ticket.OwnerAddress {
		return Result{Reason: ReasonOwnershipMismatch}, nil
	}

	if err := s.store.MarkCheckedIn(ctx, ticket.TicketObjectAddress); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyCheckedIn):
			// A concurrent redemption committed between our guard read
			// and the conditional update. Exactly one caller wins.
			log.Printf("double-use attempt for ticket %s", ticket.TicketObjectAddress)
			return Result{Reason: ReasonAlreadyCheckedIn}, nil
		case errors.Is(err, store.ErrNotFound):
			return Result{Reason: ReasonUnknownTicket}, nil
		}
		return Result{}, fmt.Errorf("committing check-in: %w", err)
	}
	return Result{Valid: true}, nil
}
