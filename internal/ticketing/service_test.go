package ticketing_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alisha-sapkal/aptos/internal/ledger"
	"github.com/alisha-sapkal/aptos/internal/models"
	"github.com/alisha-sapkal/aptos/internal/store"
	"github.com/alisha-sapkal/aptos/internal/ticketing"
	"github.com/alisha-sapkal/aptos/internal/token"
)

const testSecret = "test-secret"

// memStore implements store.TicketStore with the same conditional
// check-in contract as the database-backed store, so the race tests
// exercise the real commit discipline.
type memStore struct {
	mu      sync.Mutex
	tickets map[string]*models.Ticket
}

func newMemStore() *memStore {
	return &memStore{tickets: make(map[string]*models.Ticket)}
}

func (m *memStore) FindByObjectAddress(_ context.Context, objectAddress string) (*models.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[objectAddress]
	if !ok {
		return nil, store.ErrNotFound
	}
	copied := *ticket
	return &copied, nil
}

func (m *memStore) Insert(_ context.Context, ticket *models.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickets[ticket.TicketObjectAddress]; ok {
		return store.ErrAlreadyExists
	}
	for _, existing := range m.tickets {
		if existing.QRToken == ticket.QRToken {
			return store.ErrAlreadyExists
		}
	}
	copied := *ticket
	m.tickets[ticket.TicketObjectAddress] = &copied
	return nil
}

func (m *memStore) MarkCheckedIn(_ context.Context, objectAddress string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[objectAddress]
	if !ok {
		return store.ErrNotFound
	}
	if ticket.IsCheckedIn {
		return store.ErrAlreadyCheckedIn
	}
	ticket.IsCheckedIn = true
	return nil
}

// fakeLedger reports a fixed owner per object, or a scripted error.
type fakeLedger struct {
	owners map[string]string
	err    error
}

func (f *fakeLedger) OwnerOf(_ context.Context, objectAddress string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	owner, ok := f.owners[objectAddress]
	if !ok {
		return "", ledger.ErrObjectNotFound
	}
	return owner, nil
}

func newTestService(s store.TicketStore, l ledger.Ledger) *ticketing.Service {
	return ticketing.NewService(s, l, token.NewCodec(testSecret), time.Second)
}

func TestIssueCreatesCredential(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeLedger{})

	ticket, created, err := svc.Issue(context.Background(), "0xT1", "0xEvent", "0xA")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "0xT1", ticket.TicketObjectAddress)
	assert.Equal(t, "0xEvent", ticket.EventContractAddress)
	assert.Equal(t, "0xA", ticket.OwnerAddress)
	assert.NotEmpty(t, ticket.QRToken)
	assert.False(t, ticket.IsCheckedIn)

	claims, err := token.NewCodec(testSecret).Verify(ticket.QRToken)
	require.NoError(t, err)
	assert.Equal(t, "0xT1", claims.TicketObjectAddress)
	assert.Equal(t, "0xA", claims.OwnerAddress)
}

func TestIssueIdempotent(t *testing.T) {
	mem := newMemStore()
	svc := newTestService(mem, &fakeLedger{})

	first, created, err := svc.Issue(context.Background(), "0xT1", "0xEvent", "0xA")
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.Issue(context.Background(), "0xT1", "0xEvent", "0xA")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.QRToken, second.QRToken)
	assert.Len(t, mem.tickets, 1)
}

func TestIssueRejectsEmptyFields(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeLedger{})

	for _, args := range [][3]string{
		{"", "0xEvent", "0xA"},
		{"0xT1", "", "0xA"},
		{"0xT1", "0xEvent", ""},
	} {
		_, _, err := svc.Issue(context.Background(), args[0], args[1], args[2])
		assert.ErrorIs(t, err, ticketing.ErrInvalidInput)
	}
}

// conflictStore simulates losing an issuance race: the first lookup sees
// nothing, the insert collides, and the re-fetch returns the winner.
type conflictStore struct {
	*memStore
	winner *models.Ticket
	looked bool
}

func (c *conflictStore) FindByObjectAddress(ctx context.Context, objectAddress string) (*models.Ticket, error) {
	if !c.looked {
		c.looked = true
		return nil, store.ErrNotFound
	}
	return c.winner, nil
}

func (c *conflictStore) Insert(context.Context, *models.Ticket) error {
	return store.ErrAlreadyExists
}

func TestIssueConflictReturnsWinner(t *testing.T) {
	winner := &models.Ticket{
		TicketObjectAddress:  "0xT1",
		EventContractAddress: "0xEvent",
		OwnerAddress:         "0xA",
		QRToken:              "winning-token",
	}
	svc := newTestService(&conflictStore{memStore: newMemStore(), winner: winner}, &fakeLedger{})

	ticket, created, err := svc.Issue(context.Background(), "0xT1", "0xEvent", "0xA")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "winning-token", ticket.QRToken)
}

func issueTicket(t *testing.T, svc *ticketing.Service, objectAddress, owner string) *models.Ticket {
	t.Helper()
	ticket, _, err := svc.Issue(context.Background(), objectAddress, "0xEvent", owner)
	require.NoError(t, err)
	return ticket
}

func TestRedeemSuccess(t *testing.T) {
	mem := newMemStore()
	svc := newTestService(mem, &fakeLedger{owners: map[string]string{"0xT1": "0xA"}})
	ticket := issueTicket(t, svc, "0xT1", "0xA")

	result, err := svc.Redeem(context.Background(), ticket.QRToken)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, ticketing.ReasonNone, result.Reason)
	assert.True(t, mem.tickets["0xT1"].IsCheckedIn)
}

func TestRedeemTwiceRejectsSecond(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeLedger{owners: map[string]string{"0xT1": "0xA"}})
	ticket := issueTicket(t, svc, "0xT1", "0xA")

	first, err := svc.Redeem(context.Background(), ticket.QRToken)
	require.NoError(t, err)
	require.True(t, first.Valid)

	second, err := svc.Redeem(context.Background(), ticket.QRToken)
	require.NoError(t, err)
	assert.False(t, second.Valid)
	assert.Equal(t, ticketing.ReasonAlreadyCheckedIn, second.Reason)
}

func TestRedeemOwnershipMismatch(t *testing.T) {
	// Ticket issued to 0xB, then transferred on-chain to 0xC.
	mem := newMemStore()
	svc := newTestService(mem, &fakeLedger{owners: map[string]string{"0xT2": "0xC"}})
	ticket := issueTicket(t, svc, "0xT2", "0xB")

	result, err := svc.Redeem(context.Background(), ticket.QRToken)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ticketing.ReasonOwnershipMismatch, result.Reason)
	assert.False(t, mem.tickets["0xT2"].IsCheckedIn)
}

func TestRedeemObjectGoneIsMismatch(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeLedger{owners: map[string]string{}})
	ticket := issueTicket(t, svc, "0xT1", "0xA")

	result, err := svc.Redeem(context.Background(), ticket.QRToken)
	require.NoError(t, err)
	assert.Equal(t, ticketing.ReasonOwnershipMismatch, result.Reason)
}

func TestRedeemCorruptedToken(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeLedger{})

	result, err := svc.Redeem(context.Background(), "garbage.token.value")
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ticketing.ReasonInvalidToken, result.Reason)
}

func TestRedeemExpiredToken(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeLedger{})

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, token.Claims{
		TicketObjectAddress: "0xT1",
		OwnerAddress:        "0xA",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	result, err := svc.Redeem(context.Background(), signed)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ticketing.ReasonTokenExpired, result.Reason)
}

func TestRedeemUnknownTicket(t *testing.T) {
	// Valid signature, but no credential was ever stored here.
	svc := newTestService(newMemStore(), &fakeLedger{})

	signed, err := token.NewCodec(testSecret).Issue("0xT9", "0xA")
	require.NoError(t, err)

	result, err := svc.Redeem(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, ticketing.ReasonUnknownTicket, result.Reason)
}

func TestRedeemFailsClosedWhenLedgerDown(t *testing.T) {
	mem := newMemStore()
	svc := newTestService(mem, &fakeLedger{err: ledger.ErrUnavailable})
	ticket := issueTicket(t, svc, "0xT1", "0xA")

	result, err := svc.Redeem(context.Background(), ticket.QRToken)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, ticketing.ReasonLedgerUnavailable, result.Reason)
	assert.False(t, mem.tickets["0xT1"].IsCheckedIn, "check-in must not commit without ownership confirmation")
}

func TestRedeemFailsClosedOnLedgerTimeout(t *testing.T) {
	mem := newMemStore()
	svc := newTestService(mem, &fakeLedger{err: errors.New("Get \"http://node\": context deadline exceeded")})
	ticket := issueTicket(t, svc, "0xT1", "0xA")

	result, err := svc.Redeem(context.Background(), ticket.QRToken)
	require.NoError(t, err)
	assert.Equal(t, ticketing.ReasonLedgerUnavailable, result.Reason)
	assert.False(t, mem.tickets["0xT1"].IsCheckedIn)
}

func TestRedeemConcurrentExactlyOneWins(t *testing.T) {
	for i := 0; i < 20; i++ {
		svc := newTestService(newMemStore(), &fakeLedger{owners: map[string]string{"0xT1": "0xA"}})
		ticket := issueTicket(t, svc, "0xT1", "0xA")

		results := make([]ticketing.Result, 2)
		var wg sync.WaitGroup
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				result, err := svc.Redeem(context.Background(), ticket.QRToken)
				assert.NoError(t, err)
				results[j] = result
			}(j)
		}
		wg.Wait()

		var wins, rejections int
		for _, result := range results {
			if result.Valid {
				wins++
			} else if result.Reason == ticketing.ReasonAlreadyCheckedIn {
				rejections++
			}
		}
		assert.Equal(t, 1, wins, "exactly one concurrent redemption must succeed")
		assert.Equal(t, 1, rejections, "the loser must see already_checked_in")
	}
}
