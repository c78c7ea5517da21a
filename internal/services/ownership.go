package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/isdelr/uniwork-be/internal/apperror"
	"github.com/isdelr/uniwork-be/internal/models"
	"github.com/isdelr/uniwork-be/internal/store"
)

const invalidInputs = "Invalid inputs provided"

// ownedKind describes how one kind of child record is referenced from its
// owning user and which messages its protocols report.
type ownedKind struct {
	name         string
	refs         func(u *models.User) *[]string
	lookupFailed string
	createFailed string
	deleteFailed string
}

var (
	postKind = ownedKind{
		name:         "post",
		refs:         func(u *models.User) *[]string { return &u.Posts },
		lookupFailed: "Creating post failed",
		createFailed: "Could not create post",
		deleteFailed: "Could not delete post",
	}
	calendarKind = ownedKind{
		name:         "calendar item",
		refs:         func(u *models.User) *[]string { return &u.Calendar },
		lookupFailed: "Creating calendar item failed",
		createFailed: "Could not create calendar item",
		deleteFailed: "Could not delete item",
	}
	todoKind = ownedKind{
		name:         "todolist item",
		refs:         func(u *models.User) *[]string { return &u.Todolist },
		lookupFailed: "Creating todolist item failed",
		createFailed: "Could not create item",
		deleteFailed: "Could not delete todolist item",
	}
)

// create saves a child and appends its id to the owner's reference list as
// one transaction. The owner is re-read inside the transaction so that
// concurrent creations for the same user do not overwrite each other.
func (k ownedKind) create(ctx context.Context, st store.Store, ownerID, childID string, save func(context.Context, store.Store) error) error {
	if _, err := st.FindUser(ctx, ownerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperror.NotFound("Could not find user")
		}
		return apperror.Store(k.lookupFailed, err)
	}

	err := st.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := save(ctx, tx); err != nil {
			return fmt.Errorf("saving %s: %w", k.name, err)
		}
		owner, err := tx.FindUser(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("loading owner: %w", err)
		}
		refs := k.refs(owner)
		*refs = models.AddRef(*refs, childID)
		if err := tx.SaveUser(ctx, owner); err != nil {
			return fmt.Errorf("saving owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperror.Store(k.createFailed, err)
	}
	return nil
}

// delete removes a child and pulls its id from the owner's reference list
// as one transaction.
func (k ownedKind) delete(ctx context.Context, st store.Store, ownerID, childID string, remove func(context.Context, store.Store) error) error {
	err := st.RunInTx(ctx, func(ctx context.Context, tx store.Store) error {
		if err := remove(ctx, tx); err != nil {
			return fmt.Errorf("deleting %s: %w", k.name, err)
		}
		owner, err := tx.FindUser(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("loading owner: %w", err)
		}
		refs := k.refs(owner)
		*refs = models.RemoveRef(*refs, childID)
		if err := tx.SaveUser(ctx, owner); err != nil {
			return fmt.Errorf("saving owner: %w", err)
		}
		return nil
	})
	if err != nil {
		return apperror.Store(k.deleteFailed, err)
	}
	return nil
}

// resolveCreator returns the owner for a new record. An empty creator means
// the caller; any other value must be the caller.
func resolveCreator(creator, callerID string) (string, error) {
	if creator == "" || creator == callerID {
		return callerID, nil
	}
	return "", apperror.Authorization("You're unable to create items for another user")
}

func authorizeOwner(ownerID, callerID, msg string) error {
	if ownerID != callerID {
		return apperror.Authorization(msg)
	}
	return nil
}

// requireFields fails with a Validation error when any value is blank.
func requireFields(values ...string) error {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return apperror.Validation(invalidInputs)
		}
	}
	return nil
}
