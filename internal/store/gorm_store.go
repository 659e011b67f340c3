package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/alisha-sapkal/aptos/internal/models"
)

// GormTicketStore implements TicketStore on the application database.
// Requires the connection to be opened with TranslateError so unique
// constraint violations surface as gorm.ErrDuplicatedKey.
type GormTicketStore struct {
	db *gorm.DB
}

func NewGormTicketStore(db *gorm.DB) *GormTicketStore {
	return &GormTicketStore{db: db}
}

func (s *GormTicketStore) FindByObjectAddress(ctx context.Context, objectAddress string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).Where("ticket_object_address = ?", objectAddress).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *GormTicketStore) Insert(ctx context.Context, ticket *models.Ticket) error {
	err := s.db.WithContext(ctx).Create(ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (s *GormTicketStore) MarkCheckedIn(ctx context.Context, objectAddress string) error {
	result := s.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("ticket_object_address = ? AND is_checked_in = ?", objectAddress, false).
		Update("is_checked_in", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Either the ticket is unknown or someone else committed the
		// check-in first; re-read to tell the two apart.
		if _, err := s.FindByObjectAddress(ctx, objectAddress); err != nil {
			return err
		}
		return ErrAlreadyCheckedIn
	}
	return nil
}
