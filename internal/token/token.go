// Package token signs and verifies the QR credential embedded in a
// scannable ticket code. The credential binds a ticket object address to
// the owner address recorded at issuance and carries a fixed validity
// window. Verification is purely cryptographic: it never consults the
// database or the chain, those checks belong to the redemption pipeline.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Validity is how long an issued credential stays redeemable. A token
// presented at or after issuedAt+Validity is rejected as expired.
const Validity = 24 * time.Hour

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

type Claims struct {
	TicketObjectAddress string `json:"ticket_object_address"`
	OwnerAddress        string `json:"owner_address"`
	jwt.RegisteredClaims
}

// Codec issues and verifies signed QR credentials with a process-wide
// secret. The clock is a field so expiry behaviour is testable; outside
// of tests it is always time.Now.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret), now: time.Now}
}

func (c *Codec) Issue(ticketObjectAddress, ownerAddress string) (string, error) {
	issuedAt := c.now()
	claims := Claims{
		TicketObjectAddress: ticketObjectAddress,
		OwnerAddress:        ownerAddress,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(Validity)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing qr token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of a presented credential and
// returns its claims. All parse and signature failures collapse into
// ErrTokenInvalid so callers never learn which part of the check failed;
// only expiry is reported separately.
func (c *Codec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims.TicketObjectAddress == "" || claims.OwnerAddress == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
