// Package session holds the identity of the signed-in employee.
//
// The record is written once at login, read by the bill services through a
// read-only Context, and removed at logout. Storage is pluggable: MapStorage
// for tests and CLI use, CookieStorage for the web server.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Key is the storage key holding the serialized user record.
const Key = "user"

const (
	TypeEmployee = "Employee"
	TypeAdmin    = "Admin"
)

var (
	ErrNoSession  = errors.New("no active session")
	ErrEmptyEmail = errors.New("session email is required")
)

// Storage is a string key-value store.
type Storage interface {
	GetItem(key string) (string, bool)
	SetItem(key, value string)
	RemoveItem(key string)
}

// User is the serialized session record.
type User struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

// Login validates and stores u. An empty type defaults to TypeEmployee.
func Login(s Storage, u User) error {
	u.Email = strings.TrimSpace(u.Email)
	if u.Email == "" {
		return ErrEmptyEmail
	}
	if u.Type == "" {
		u.Type = TypeEmployee
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	s.SetItem(Key, string(raw))
	return nil
}

// Current decodes the stored user record.
func Current(s Storage) (User, error) {
	raw, ok := s.GetItem(Key)
	if !ok || raw == "" {
		return User{}, ErrNoSession
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, fmt.Errorf("decode session: %w", err)
	}
	if u.Email == "" {
		return User{}, ErrNoSession
	}
	return u, nil
}

func Logout(s Storage) {
	s.RemoveItem(Key)
}

// Context is the read-only view of the active session handed to services.
type Context struct {
	user User
}

func NewContext(u User) Context { return Context{user: u} }

// FromStorage builds a Context from the stored record.
func FromStorage(s Storage) (Context, error) {
	u, err := Current(s)
	if err != nil {
		return Context{}, err
	}
	return NewContext(u), nil
}

func (c Context) Email() string { return c.user.Email }
func (c Context) Type() string  { return c.user.Type }
func (c Context) IsAdmin() bool { return c.user.Type == TypeAdmin }
func (c Context) IsZero() bool  { return c.user.Email == "" }
func (c Context) User() User    { return c.user }

type ctxKey struct{}

// WithContext attaches the session to a request context.
func WithContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// FromContext returns the session attached by WithContext.
func FromContext(ctx context.Context) (Context, bool) {
	c, ok := ctx.Value(ctxKey{}).(Context)
	return c, ok && !c.IsZero()
}

// MapStorage is an in-memory Storage.
type MapStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMapStorage() *MapStorage {
	return &MapStorage{items: map[string]string{}}
}

func (m *MapStorage) GetItem(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *MapStorage) SetItem(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
}

func (m *MapStorage) RemoveItem(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}
