// Package store persists users and their owned records. Two backends
// implement Store: SQLite (the default, single file) and MongoDB.
package store

import (
	"context"
	"errors"

	"github.com/isdelr/uniwork-be/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a save would violate a unique field.
var ErrDuplicate = errors.New("duplicate")

// TxFunc is run inside a transaction. All reads and writes made through tx
// (using the ctx it was given) commit or roll back together.
type TxFunc func(ctx context.Context, tx Store) error

// Store defines the persistence operations for all record kinds.
type Store interface {
	// Users
	FindUser(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	SaveUser(ctx context.Context, user *models.User) error

	// Posts
	FindPost(ctx context.Context, id string) (*models.Post, error)
	FindPostsByCreator(ctx context.Context, creatorID string) ([]models.Post, error)
	SavePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
	ListPostImages(ctx context.Context) ([]string, error)

	// Calendar items
	FindCalendarItem(ctx context.Context, id string) (*models.CalendarItem, error)
	FindCalendarItemsByCreator(ctx context.Context, creatorID string) ([]models.CalendarItem, error)
	SaveCalendarItem(ctx context.Context, item *models.CalendarItem) error
	DeleteCalendarItem(ctx context.Context, id string) error

	// Todo items
	FindTodoItem(ctx context.Context, id string) (*models.TodoItem, error)
	FindTodoItemsByCreator(ctx context.Context, creatorID string) ([]models.TodoItem, error)
	SaveTodoItem(ctx context.Context, item *models.TodoItem) error
	DeleteTodoItem(ctx context.Context, id string) error

	// RunInTx runs fn in a transaction. A non-nil error from fn aborts it.
	// Calling RunInTx on a store that is already inside a transaction runs
	// fn in the enclosing one.
	RunInTx(ctx context.Context, fn TxFunc) error

	Close() error
}
