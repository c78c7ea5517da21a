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

// TodoInput holds the fields accepted when creating a todo item.
type TodoInput struct {
	Description string `json:"description"`
	Creator     string `json:"creator"`
}

// TodoServiceProvider defines the interface for todo list services.
type TodoServiceProvider interface {
	GetByUser(ctx context.Context, userID string) ([]models.TodoItem, error)
	Create(ctx context.Context, callerID string, input TodoInput) (*models.TodoItem, error)
	Delete(ctx context.Context, callerID, id string) error
}

// TodoService provides business logic for todo items.
type TodoService struct {
	store    store.Store
	notifier Notifier
}

// NewTodoService creates a new TodoService.
func NewTodoService(st store.Store, notifier Notifier) *TodoService {
	return &TodoService{store: st, notifier: notifierOrNop(notifier)}
}

// GetByUser retrieves every todo item created by userID.
func (s *TodoService) GetByUser(ctx context.Context, userID string) ([]models.TodoItem, error) {
	items, err := s.store.FindTodoItemsByCreator(ctx, userID)
	if err != nil {
		return nil, apperror.Store("Could not find todolist items with the provided user id", err)
	}
	if len(items) == 0 {
		return nil, apperror.NotFound("Could not find todolist item for the provided user id")
	}
	return items, nil
}

// Create adds a todo item for its creator.
func (s *TodoService) Create(ctx context.Context, callerID string, input TodoInput) (*models.TodoItem, error) {
	if err := requireFields(input.Description); err != nil {
		return nil, err
	}
	creator, err := resolveCreator(input.Creator, callerID)
	if err != nil {
		return nil, err
	}

	item := &models.TodoItem{
		ID:          uuid.New().String(),
		Description: input.Description,
		Creator:     creator,
		CreatedAt:   time.Now().UTC(),
	}
	err = todoKind.create(ctx, s.store, creator, item.ID, func(ctx context.Context, tx store.Store) error {
		return tx.SaveTodoItem(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(creator, websocket.ActionTodoCreated, item)
	return item, nil
}

// Delete removes a todo item owned by callerID.
func (s *TodoService) Delete(ctx context.Context, callerID, id string) error {
	item, err := s.store.FindTodoItem(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("Could not find item")
		}
		return apperror.Store("Could not delete todolist item", err)
	}
	if err := authorizeOwner(item.Creator, callerID, "You're unable to delete this item"); err != nil {
		return err
	}

	err = todoKind.delete(ctx, s.store, item.Creator, item.ID, func(ctx context.Context, tx store.Store) error {
		return tx.DeleteTodoItem(ctx, item.ID)
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(item.Creator, websocket.ActionTodoDeleted, websocket.DeletedPayload{ID: item.ID})
	return nil
}
