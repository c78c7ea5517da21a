package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/isdelr/uniwork-be/internal/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteStore implements Store on a database opened by database.New.
type SQLiteStore struct {
	db *sql.DB
	q  queryer
	tx *sql.Tx
}

// NewSQLiteStore wraps an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, q: db}
}

// Close closes the underlying database. It is a no-op inside a transaction.
func (s *SQLiteStore) Close() error {
	if s.tx != nil {
		return nil
	}
	return s.db.Close()
}

// RunInTx runs fn inside a single database transaction.
func (s *SQLiteStore) RunInTx(ctx context.Context, fn TxFunc) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(ctx, &SQLiteStore{db: s.db, q: tx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// mapWriteErr translates driver errors into the package sentinels.
func mapWriteErr(err error) error {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
	}
	return err
}

// --- Users ---

const userColumns = `id, username, email, password_hash, posts_json, calendar_json, todolist_json, created_at`

func scanUser(scanner interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := scanner.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.PostsJSON, &u.CalendarJSON, &u.TodolistJSON, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := u.PrepareForAPI(); err != nil {
		return nil, fmt.Errorf("decoding reference lists for user %s: %w", u.ID, err)
	}
	return &u, nil
}

// FindUser retrieves a user by ID.
func (s *SQLiteStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// FindUserByUsername retrieves a user by their unique username.
func (s *SQLiteStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// SaveUser inserts the user or replaces the stored copy.
func (s *SQLiteStore) SaveUser(ctx context.Context, user *models.User) error {
	if err := user.PrepareForDB(); err != nil {
		return fmt.Errorf("encoding reference lists: %w", err)
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			email = excluded.email,
			password_hash = excluded.password_hash,
			posts_json = excluded.posts_json,
			calendar_json = excluded.calendar_json,
			todolist_json = excluded.todolist_json`,
		user.ID, user.Username, user.Email, user.PasswordHash,
		user.PostsJSON, user.CalendarJSON, user.TodolistJSON, user.CreatedAt)
	return mapWriteErr(err)
}

// deleteByID removes one row and reports ErrNotFound if nothing matched.
func (s *SQLiteStore) deleteByID(ctx context.Context, table, id string) error {
	res, err := s.q.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Posts ---

const postColumns = `id, title, description, image, creator, created_at`

func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(&p.ID, &p.Title, &p.Description, &p.Image, &p.Creator, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindPost retrieves a post by ID.
func (s *SQLiteStore) FindPost(ctx context.Context, id string) (*models.Post, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	return scanPost(row)
}

// FindPostsByCreator retrieves all posts owned by a user, oldest first.
func (s *SQLiteStore) FindPostsByCreator(ctx context.Context, creatorID string) ([]models.Post, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+postColumns+` FROM posts WHERE creator = ? ORDER BY created_at, rowid`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// SavePost inserts the post or replaces the stored copy.
func (s *SQLiteStore) SavePost(ctx context.Context, post *models.Post) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO posts (`+postColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			image = excluded.image,
			creator = excluded.creator`,
		post.ID, post.Title, post.Description, post.Image, post.Creator, post.CreatedAt)
	return mapWriteErr(err)
}

// DeletePost removes a post by ID.
func (s *SQLiteStore) DeletePost(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "posts", id)
}

// ListPostImages returns the image path of every stored post.
func (s *SQLiteStore) ListPostImages(ctx context.Context) ([]string, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT image FROM posts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []string
	for rows.Next() {
		var image string
		if err := rows.Scan(&image); err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

// --- Calendar items ---

const calendarColumns = `id, title, description, date, time, creator, created_at`

func scanCalendarItem(scanner interface{ Scan(...any) error }) (*models.CalendarItem, error) {
	var c models.CalendarItem
	err := scanner.Scan(&c.ID, &c.Title, &c.Description, &c.Date, &c.Time, &c.Creator, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindCalendarItem retrieves a calendar item by ID.
func (s *SQLiteStore) FindCalendarItem(ctx context.Context, id string) (*models.CalendarItem, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+calendarColumns+` FROM calendar_items WHERE id = ?`, id)
	return scanCalendarItem(row)
}

// FindCalendarItemsByCreator retrieves all calendar items owned by a user.
func (s *SQLiteStore) FindCalendarItemsByCreator(ctx context.Context, creatorID string) ([]models.CalendarItem, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+calendarColumns+` FROM calendar_items WHERE creator = ? ORDER BY created_at, rowid`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.CalendarItem{}
	for rows.Next() {
		c, err := scanCalendarItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// SaveCalendarItem inserts the item or replaces the stored copy.
func (s *SQLiteStore) SaveCalendarItem(ctx context.Context, item *models.CalendarItem) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO calendar_items (`+calendarColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			date = excluded.date,
			time = excluded.time,
			creator = excluded.creator`,
		item.ID, item.Title, item.Description, item.Date, item.Time, item.Creator, item.CreatedAt)
	return mapWriteErr(err)
}

// DeleteCalendarItem removes a calendar item by ID.
func (s *SQLiteStore) DeleteCalendarItem(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "calendar_items", id)
}

// --- Todo items ---

const todoColumns = `id, description, creator, created_at`

func scanTodoItem(scanner interface{ Scan(...any) error }) (*models.TodoItem, error) {
	var t models.TodoItem
	err := scanner.Scan(&t.ID, &t.Description, &t.Creator, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindTodoItem retrieves a todo item by ID.
func (s *SQLiteStore) FindTodoItem(ctx context.Context, id string) (*models.TodoItem, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todo_items WHERE id = ?`, id)
	return scanTodoItem(row)
}

// FindTodoItemsByCreator retrieves all todo items owned by a user.
func (s *SQLiteStore) FindTodoItemsByCreator(ctx context.Context, creatorID string) ([]models.TodoItem, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT `+todoColumns+` FROM todo_items WHERE creator = ? ORDER BY created_at, rowid`, creatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.TodoItem{}
	for rows.Next() {
		t, err := scanTodoItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

// SaveTodoItem inserts the item or replaces the stored copy.
func (s *SQLiteStore) SaveTodoItem(ctx context.Context, item *models.TodoItem) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO todo_items (`+todoColumns+`)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			creator = excluded.creator`,
		item.ID, item.Description, item.Creator, item.CreatedAt)
	return mapWriteErr(err)
}

// DeleteTodoItem removes a todo item by ID.
func (s *SQLiteStore) DeleteTodoItem(ctx context.Context, id string) error {
	return s.deleteByID(ctx, "todo_items", id)
}
