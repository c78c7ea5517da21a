package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/uniwork-be/internal/apperror"
	"github.com/isdelr/uniwork-be/internal/models"
	"github.com/isdelr/uniwork-be/internal/store"
	"github.com/isdelr/uniwork-be/internal/websocket"
)

// CalendarInput holds the fields accepted when creating a calendar item.
type CalendarInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Creator     string `json:"creator"`
}

// CalendarServiceProvider defines the interface for calendar services.
type CalendarServiceProvider interface {
	GetByUser(ctx context.Context, userID string) ([]models.CalendarItem, error)
	Create(ctx context.Context, callerID string, input CalendarInput) (*models.CalendarItem, error)
	Delete(ctx context.Context, callerID, id string) error
}

// CalendarService provides business logic for calendar items.
type CalendarService struct {
	store    store.Store
	notifier Notifier
}

// NewCalendarService creates a new CalendarService.
func NewCalendarService(st store.Store, notifier Notifier) *CalendarService {
	return &CalendarService{store: st, notifier: notifierOrNop(notifier)}
}

// GetByUser retrieves every calendar item created by userID.
func (s *CalendarService) GetByUser(ctx context.Context, userID string) ([]models.CalendarItem, error) {
	items, err := s.store.FindCalendarItemsByCreator(ctx, userID)
	if err != nil {
		return nil, apperror.Store("Could not find calendar items for the provided user id", err)
	}
	if len(items) == 0 {
		return nil, apperror.NotFound("Could not find calendar item for the provided user id")
	}
	return items, nil
}

// Create adds a calendar item for its creator.
func (s *CalendarService) Create(ctx context.Context, callerID string, input CalendarInput) (*models.CalendarItem, error) {
	if err := requireFields(input.Title, input.Description, input.Date, input.Time); err != nil {
		return nil, err
	}
	creator, err := resolveCreator(input.Creator, callerID)
	if err != nil {
		return nil, err
	}

	item := &models.CalendarItem{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Date:        input.Date,
		Time:        input.Time,
		Creator:     creator,
		CreatedAt:   time.Now().UTC(),
	}
	err = calendarKind.create(ctx, s.store, creator, item.ID, func(ctx context.Context, tx store.Store) error {
		return tx.SaveCalendarItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(creator, websocket.ActionCalendarCreated, item)
	return item, nil
}

// Delete removes a calendar item owned by callerID.
func (s *CalendarService) Delete(ctx context.Context, callerID, id string) error {
	item, err := s.store.FindCalendarItem(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("Could not find item")
		}
		return apperror.Store("Could not delete item", err)
	}
	if err := authorizeOwner(item.Creator, callerID, "You're unable to delete this item"); err != nil {
		return err
	}

	err = calendarKind.delete(ctx, s.store, item.Creator, item.ID, func(ctx context.Context, tx store.Store) error {
		return tx.DeleteCalendarItem(ctx, item.ID)
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(item.Creator, websocket.ActionCalendarDeleted, websocket.DeletedPayload{ID: item.ID})
	return nil
}
