package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/isdelr/uniwork-be/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names used by the MongoDB backend.
const (
	UsersCollection         = "users"
	PostsCollection         = "posts"
	CalendarItemsCollection = "calendaritems"
	TodoItemsCollection     = "tditems"
)

// MongoStore implements Store on a MongoDB database. Transactions require a
// replica set or sharded cluster.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore wraps a connected client. Indexes are created by
// database.MigrateMongo.
func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{client: client, db: client.Database(dbName)}
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// RunInTx runs fn inside a multi-document transaction on a fresh session.
// The transaction is not retried on transient errors.
func (s *MongoStore) RunInTx(ctx context.Context, fn TxFunc) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer sess.EndSession(context.Background())

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sess.StartTransaction(); err != nil {
			return fmt.Errorf("starting transaction: %w", err)
		}
		if err := fn(sc, s); err != nil {
			if abortErr := sess.AbortTransaction(context.Background()); abortErr != nil {
				return errors.Join(err, fmt.Errorf("aborting transaction: %w", abortErr))
			}
			return err
		}
		if err := sess.CommitTransaction(sc); err != nil {
			return fmt.Errorf("committing transaction: %w", err)
		}
		return nil
	})
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func findByCreator[T any](ctx context.Context, coll *mongo.Collection, creatorID string) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := coll.Find(ctx, bson.M{"creator": creatorID}, opts)
	if err != nil {
		return nil, err
	}
	docs := []T{}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func replaceByID(ctx context.Context, coll *mongo.Collection, id string, doc any) error {
	_, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id string) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindUser retrieves a user by ID.
func (s *MongoStore) FindUser(ctx context.Context, id string) (*models.User, error) {
	return findOne[models.User](ctx, s.db.Collection(UsersCollection), bson.M{"_id": id})
}

// FindUserByUsername retrieves a user by their unique username.
func (s *MongoStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return findOne[models.User](ctx, s.db.Collection(UsersCollection), bson.M{"username": username})
}

// SaveUser upserts the user document.
func (s *MongoStore) SaveUser(ctx context.Context, user *models.User) error {
	return replaceByID(ctx, s.db.Collection(UsersCollection), user.ID, user)
}

// FindPost retrieves a post by ID.
func (s *MongoStore) FindPost(ctx context.Context, id string) (*models.Post, error) {
	return findOne[models.Post](ctx, s.db.Collection(PostsCollection), bson.M{"_id": id})
}

// FindPostsByCreator retrieves all posts owned by a user, oldest first.
func (s *MongoStore) FindPostsByCreator(ctx context.Context, creatorID string) ([]models.Post, error) {
	return findByCreator[models.Post](ctx, s.db.Collection(PostsCollection), creatorID)
}

// SavePost upserts the post document.
func (s *MongoStore) SavePost(ctx context.Context, post *models.Post) error {
	return replaceByID(ctx, s.db.Collection(PostsCollection), post.ID, post)
}

// DeletePost removes a post by ID.
func (s *MongoStore) DeletePost(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db.Collection(PostsCollection), id)
}

// ListPostImages returns the image path of every stored post.
func (s *MongoStore) ListPostImages(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"image": 1})
	cur, err := s.db.Collection(PostsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []struct {
		Image string `bson:"image"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	images := make([]string, 0, len(docs))
	for _, d := range docs {
		images = append(images, d.Image)
	}
	return images, nil
}

// FindCalendarItem retrieves a calendar item by ID.
func (s *MongoStore) FindCalendarItem(ctx context.Context, id string) (*models.CalendarItem, error) {
	return findOne[models.CalendarItem](ctx, s.db.Collection(CalendarItemsCollection), bson.M{"_id": id})
}

// FindCalendarItemsByCreator retrieves all calendar items owned by a user.
func (s *MongoStore) FindCalendarItemsByCreator(ctx context.Context, creatorID string) ([]models.CalendarItem, error) {
	return findByCreator[models.CalendarItem](ctx, s.db.Collection(CalendarItemsCollection), creatorID)
}

// SaveCalendarItem upserts the calendar item document.
func (s *MongoStore) SaveCalendarItem(ctx context.Context, item *models.CalendarItem) error {
	return replaceByID(ctx, s.db.Collection(CalendarItemsCollection), item.ID, item)
}

// DeleteCalendarItem removes a calendar item by ID.
func (s *MongoStore) DeleteCalendarItem(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db.Collection(CalendarItemsCollection), id)
}

// FindTodoItem retrieves a todo item by ID.
func (s *MongoStore) FindTodoItem(ctx context.Context, id string) (*models.TodoItem, error) {
	return findOne[models.TodoItem](ctx, s.db.Collection(TodoItemsCollection), bson.M{"_id": id})
}

// FindTodoItemsByCreator retrieves all todo items owned by a user.
func (s *MongoStore) FindTodoItemsByCreator(ctx context.Context, creatorID string) ([]models.TodoItem, error) {
	return findByCreator[models.TodoItem](ctx, s.db.Collection(TodoItemsCollection), creatorID)
}

// SaveTodoItem upserts the todo item document.
func (s *MongoStore) SaveTodoItem(ctx context.Context, item *models.TodoItem) error {
	return replaceByID(ctx, s.db.Collection(TodoItemsCollection), item.ID, item)
}

// DeleteTodoItem removes a todo item by ID.
func (s *MongoStore) DeleteTodoItem(ctx context.Context, id string) error {
	return deleteByID(ctx, s.db.Collection(TodoItemsCollection), id)
}
