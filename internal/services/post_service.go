package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/uniwork-be/internal/apperror"
	"github.com/isdelr/uniwork-be/internal/models"
	"github.com/isdelr/uniwork-be/internal/store"
	"github.com/isdelr/uniwork-be/internal/uploads"
	"github.com/isdelr/uniwork-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// ImageStore saves and removes post images.
type ImageStore interface {
	Save(r io.Reader, contentType string) (string, error)
	Remove(publicPath string) error
}

// PostInput holds the fields accepted when creating a post.
type PostInput struct {
	Title       string
	Description string
	Creator     string

	Image            io.Reader
	ImageContentType string
}

// PostUpdate holds the editable fields of a post.
type PostUpdate struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// PostServiceProvider defines the interface for post services.
type PostServiceProvider interface {
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetByUser(ctx context.Context, userID string) ([]models.Post, error)
	Create(ctx context.Context, callerID string, input PostInput) (*models.Post, error)
	Update(ctx context.Context, callerID, id string, input PostUpdate) (*models.Post, error)
	Delete(ctx context.Context, callerID, id string) error
}

// PostService provides business logic for posts and their images.
type PostService struct {
	store    store.Store
	images   ImageStore
	notifier Notifier
}

// NewPostService creates a new PostService.
func NewPostService(st store.Store, images ImageStore, notifier Notifier) *PostService {
	return &PostService{store: st, images: images, notifier: notifierOrNop(notifier)}
}

// GetByID retrieves a single post.
func (s *PostService) GetByID(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.store.FindPost(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperror.NotFound("Could not find post for the provided id")
		}
		return nil, apperror.Store("Could not find post with that id", err)
	}
	return post, nil
}

// GetByUser retrieves every post created by userID. A user without posts
// is reported as NotFound.
func (s *PostService) GetByUser(ctx context.Context, userID string) ([]models.Post, error) {
	posts, err := s.store.FindPostsByCreator(ctx, userID)
	if err != nil {
		return nil, apperror.Store("Could not find posts with the provided user id", err)
	}
	if len(posts) == 0 {
		return nil, apperror.NotFound("Could not find posts for the provided user id")
	}
	return posts, nil
}

// Create stores the image and then the post. The image file is removed
// again when the post cannot be created.
func (s *PostService) Create(ctx context.Context, callerID string, input PostInput) (*models.Post, error) {
	if err := requireFields(input.Title, input.Description); err != nil {
		return nil, err
	}
	if input.Image == nil {
		return nil, apperror.Validation(invalidInputs)
	}
	creator, err := resolveCreator(input.Creator, callerID)
	if err != nil {
		return nil, err
	}

	image, err := s.images.Save(input.Image, input.ImageContentType)
	if err != nil {
		switch {
		case errors.Is(err, uploads.ErrUnsupportedType):
			return nil, apperror.Validation("Invalid image type")
		case errors.Is(err, uploads.ErrTooLarge):
			return nil, apperror.Validation("Image is too large")
		}
		return nil, apperror.Internal("Creating post failed", err)
	}

	post := &models.Post{
		ID:          uuid.New().String(),
		Title:       input.Title,
		Description: input.Description,
		Image:       image,
		Creator:     creator,
		CreatedAt:   time.Now().UTC(),
	}
	err = postKind.create(ctx, s.store, creator, post.ID, func(ctx context.Context, tx store.Store) error {
		return tx.SavePost(ctx, post)
	})
	if err != nil {
		s.removeImage(image)
		return nil, err
	}

	s.notifier.Notify(creator, websocket.ActionPostCreated, post)
	return post, nil
}

// Update changes the title and description of a post owned by callerID.
func (s *PostService) Update(ctx context.Context, callerID, id string, input PostUpdate) (*models.Post, error) {
	if err := requireFields(input.Title, input.Description); err != nil {
		return nil, err
	}

	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOwner(post.Creator, callerID, "You're unable to edit this post"); err != nil {
		return nil, err
	}

	post.Title = input.Title
	post.Description = input.Description
	if err := s.store.SavePost(ctx, post); err != nil {
		return nil, apperror.Store("Could not update post", err)
	}

	s.notifier.Notify(post.Creator, websocket.ActionPostUpdated, post)
	return post, nil
}

// Delete removes a post owned by callerID, then its image file.
func (s *PostService) Delete(ctx context.Context, callerID, id string) error {
	post, err := s.store.FindPost(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("Could not find post")
		}
		return apperror.Store("Could not delete post", err)
	}
	if err := authorizeOwner(post.Creator, callerID, "You're unable to delete this post"); err != nil {
		return err
	}

	err = postKind.delete(ctx, s.store, post.Creator, post.ID, func(ctx context.Context, tx store.Store) error {
		return tx.DeletePost(ctx, post.ID)
	})
	if err != nil {
		return err
	}

	s.removeImage(post.Image)
	s.notifier.Notify(post.Creator, websocket.ActionPostDeleted, websocket.DeletedPayload{ID: post.ID})
	return nil
}

// removeImage deletes an image file. Failures are logged; the sweeper
// collects anything left behind.
func (s *PostService) removeImage(image string) {
	if err := s.images.Remove(image); err != nil {
		log.Warn().Err(err).Str("image", image).Msg("Failed to remove post image")
	}
}
