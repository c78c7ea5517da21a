package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/isdelr/uniwork-be/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite" // SQLite driver
)

// New creates a new SQLite connection pool. Transactions take the write
// lock when they begin so concurrent read-modify-write sequences on the
// same user serialize instead of losing updates.
func New(dataSourceName string) (*sql.DB, error) {
	if dir := filepath.Dir(dataSourceName); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn := "file:" + dataSourceName +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_txlock=immediate"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate runs the SQL statements to set up the database schema.
func Migrate(db *sql.DB) error {
	const sqlStmt = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT NOT NULL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		-- Ordered reference lists stored as JSON arrays of ids
		posts_json TEXT NOT NULL DEFAULT '[]',
		calendar_json TEXT NOT NULL DEFAULT '[]',
		todolist_json TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		image TEXT NOT NULL,
		creator TEXT NOT NULL REFERENCES users(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_posts_creator ON posts(creator);

	CREATE TABLE IF NOT EXISTS calendar_items (
		id TEXT NOT NULL PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		date TEXT NOT NULL, -- opaque, as sent by the client
		time TEXT NOT NULL,
		creator TEXT NOT NULL REFERENCES users(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_calendar_items_creator ON calendar_items(creator);

	CREATE TABLE IF NOT EXISTS todo_items (
		id TEXT NOT NULL PRIMARY KEY,
		description TEXT NOT NULL,
		creator TEXT NOT NULL REFERENCES users(id),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_todo_items_creator ON todo_items(creator);
	`
	_, err := db.Exec(sqlStmt)
	return err
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}

// MigrateMongo creates the collections and indexes the store relies on.
// Collections are created up front because they cannot be created implicitly
// inside a multi-document transaction on older servers.
func MigrateMongo(ctx context.Context, db *mongo.Database) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("listing collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	indexes := map[string][]mongo.IndexModel{
		store.UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		store.PostsCollection:         {{Keys: bson.D{{Key: "creator", Value: 1}}}},
		store.CalendarItemsCollection: {{Keys: bson.D{{Key: "creator", Value: 1}}}},
		store.TodoItemsCollection:     {{Keys: bson.D{{Key: "creator", Value: 1}}}},
	}

	for name, models := range indexes {
		if !have[name] {
			if err := db.CreateCollection(ctx, name); err != nil {
				return fmt.Errorf("creating collection %s: %w", name, err)
			}
		}
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes on %s: %w", name, err)
		}
	}
	return nil
}
