package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/uniwork-be/internal/apperror"
	"github.com/isdelr/uniwork-be/internal/auth"
	"github.com/isdelr/uniwork-be/internal/database"
	"github.com/isdelr/uniwork-be/internal/models"
	"github.com/isdelr/uniwork-be/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "services-test-secret-of-32-bytes"

var errInjected = errors.New("injected failure")

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	s := store.NewSQLiteStore(db)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestCredentials(t *testing.T) *auth.Credentials {
	t.Helper()
	creds, err := auth.NewCredentials([]byte(testSecret), time.Hour, 4)
	require.NoError(t, err)
	return creds
}

func createTestUser(t *testing.T, s store.Store, id, username string) {
	t.Helper()
	require.NoError(t, s.SaveUser(context.Background(), &models.User{
		ID:           id,
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	}))
}

func findTestUser(t *testing.T, s store.Store, id string) *models.User {
	t.Helper()
	u, err := s.FindUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

// failingStore fails SaveUser calls made inside a transaction, after the
// child record has already been written.
type failingStore struct {
	store.Store
	inTx bool
}

func (f *failingStore) RunInTx(ctx context.Context, fn store.TxFunc) error {
	return f.Store.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &failingStore{Store: tx, inTx: true})
	})
}

func (f *failingStore) SaveUser(ctx context.Context, u *models.User) error {
	if f.inTx {
		return errInjected
	}
	return f.Store.SaveUser(ctx, u)
}

type notification struct {
	userID string
	action string
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (r *recordingNotifier) Notify(userID, action string, _ interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, notification{userID: userID, action: action})
}

func (r *recordingNotifier) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.action)
	}
	return out
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, kind), "want %s error, got %v", kind, err)
}
