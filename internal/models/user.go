package models

import (
	"encoding/json"
	"slices"
	"time"
)

// User represents a user account in the system.
type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"` // Never expose this to the client
	Posts        []string  `json:"posts" bson:"posts"`
	Calendar     []string  `json:"calendar" bson:"calendar"`
	Todolist     []string  `json:"todolist" bson:"todolist"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`

	// JSON text forms of the reference lists, used by the SQL store.
	PostsJSON    string `json:"-" bson:"-"`
	CalendarJSON string `json:"-" bson:"-"`
	TodolistJSON string `json:"-" bson:"-"`
}

// AddRef appends id to the list unless it is already present.
func AddRef(list []string, id string) []string {
	if slices.Contains(list, id) {
		return list
	}
	return append(list, id)
}

// RemoveRef returns list without any occurrence of id, preserving order.
func RemoveRef(list []string, id string) []string {
	out := list[:0:0]
	for _, ref := range list {
		if ref != id {
			out = append(out, ref)
		}
	}
	return out
}

// PrepareForDB marshals the reference lists into their JSON text columns.
func (u *User) PrepareForDB() error {
	fields := []struct {
		list []string
		dst  *string
	}{
		{u.Posts, &u.PostsJSON},
		{u.Calendar, &u.CalendarJSON},
		{u.Todolist, &u.TodolistJSON},
	}
	for _, f := range fields {
		list := f.list
		if list == nil {
			list = []string{}
		}
		b, err := json.Marshal(list)
		if err != nil {
			return err
		}
		*f.dst = string(b)
	}
	return nil
}

// PrepareForAPI unmarshals the JSON text columns back into the reference lists.
func (u *User) PrepareForAPI() error {
	fields := []struct {
		src string
		dst *[]string
	}{
		{u.PostsJSON, &u.Posts},
		{u.CalendarJSON, &u.Calendar},
		{u.TodolistJSON, &u.Todolist},
	}
	for _, f := range fields {
		*f.dst = []string{}
		if f.src == "" {
			continue
		}
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return err
		}
	}
	return nil
}
