// Package ledger provides read-only ownership lookups against the Aptos
// blockchain. Redemption treats the chain as the source of truth for who
// currently holds a ticket object; everything here fails loudly so the
// caller can fail closed.
package ledger

import (
	"context"
	"errors"
)

var (
	// ErrUnavailable covers every non-authoritative failure: network
	// errors, timeouts, and unexpected node responses. Callers must
	// never treat it as an ownership answer.
	ErrUnavailable = errors.New("ledger unavailable")
	// ErrObjectNotFound means the node answered and the object does not
	// exist (burned or never minted). Unlike ErrUnavailable this is an
	// authoritative result.
	ErrObjectNotFound = errors.New("ticket object not found on chain")
)

type Ledger interface {
	// OwnerOf returns the address that currently owns the given object.
	OwnerOf(ctx context.Context, objectAddress string) (string, error)
}
