package actions

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dwellio/go-formstate/pkg/listing"
)

// Store errors.
var (
	ErrNotFound = errors.New("actions: not found")
	ErrConflict = errors.New("actions: already exists")
)

// Store persists listings, messages and users.
type Store interface {
	CreateProperty(ctx context.Context, p listing.Property) (listing.Property, error)
	Property(ctx context.Context, id string) (listing.Property, error)
	Properties(ctx context.Context, owner string) ([]listing.Property, error)
	UpdateProperty(ctx context.Context, p listing.Property) error
	DeleteProperty(ctx context.Context, id string) error

	CreateMessage(ctx context.Context, m listing.Message) (listing.Message, error)
	Message(ctx context.Context, id string) (listing.Message, error)
	UpdateMessage(ctx context.Context, m listing.Message) error
	DeleteMessage(ctx context.Context, id string) error
	Messages(ctx context.Context, recipient string) ([]listing.Message, error)

	CreateUser(ctx context.Context, u listing.User) (listing.User, error)
	User(ctx context.Context, id string) (listing.User, error)
	UserByEmail(ctx context.Context, email string) (listing.User, error)
	UpdateUser(ctx context.Context, u listing.User) error
	// ModifyUser applies fn to the stored user and saves the result as one
	// step. An error from fn leaves the user unchanged.
	ModifyUser(ctx context.Context, id string, fn func(*listing.User) error) (listing.User, error)
}

// MemoryStore is an in-process Store. Records are copied on the way in and
// out, so callers never share slices with the store.
type MemoryStore struct {
	mu         sync.RWMutex
	now        func() time.Time
	properties map[string]listing.Property
	messages   map[string]listing.Message
	users      map[string]listing.User
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store. now stamps created records; nil
// uses time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		now:        now,
		properties: make(map[string]listing.Property),
		messages:   make(map[string]listing.Message),
		users:      make(map[string]listing.User),
	}
}

func (s *MemoryStore) CreateProperty(ctx context.Context, p listing.Property) (listing.Property, error) {
	if err := ctx.Err(); err != nil {
		return listing.Property{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if _, exists := s.properties[p.ID]; exists {
		return listing.Property{}, ErrConflict
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	s.properties[p.ID] = cloneProperty(p)
	return cloneProperty(p), nil
}

func (s *MemoryStore) Property(ctx context.Context, id string) (listing.Property, error) {
	if err := ctx.Err(); err != nil {
		return listing.Property{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.properties[id]
	if !ok {
		return listing.Property{}, ErrNotFound
	}
	return cloneProperty(p), nil
}

// Properties returns the owner's listings oldest first. An empty owner
// returns every listing.
func (s *MemoryStore) Properties(ctx context.Context, owner string) ([]listing.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []listing.Property
	for _, p := range s.properties {
		if owner == "" || p.Owner == owner {
			out = append(out, cloneProperty(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) UpdateProperty(ctx context.Context, p listing.Property) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.properties[p.ID]; !ok {
		return ErrNotFound
	}
	p.UpdatedAt = s.now().UTC()
	s.properties[p.ID] = cloneProperty(p)
	return nil
}

// DeleteProperty removes the property together with its messages and any
// bookmarks pointing at it.
func (s *MemoryStore) DeleteProperty(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.properties[id]; !ok {
		return ErrNotFound
	}
	delete(s.properties, id)
	for msgID, m := range s.messages {
		if m.Property == id {
			delete(s.messages, msgID)
		}
	}
	for userID, u := range s.users {
		if u.HasBookmark(id) {
			u.Bookmarks = without(u.Bookmarks, id)
			s.users[userID] = u
		}
	}
	return nil
}

func (s *MemoryStore) CreateMessage(ctx context.Context, m listing.Message) (listing.Message, error) {
	if err := ctx.Err(); err != nil {
		return listing.Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if _, exists := s.messages[m.ID]; exists {
		return listing.Message{}, ErrConflict
	}
	m.CreatedAt = s.now().UTC()
	s.messages[m.ID] = m
	return m, nil
}

func (s *MemoryStore) Message(ctx context.Context, id string) (listing.Message, error) {
	if err := ctx.Err(); err != nil {
		return listing.Message{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return listing.Message{}, ErrNotFound
	}
	return m, nil
}

func (s *MemoryStore) UpdateMessage(ctx context.Context, m listing.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[m.ID]; !ok {
		return ErrNotFound
	}
	s.messages[m.ID] = m
	return nil
}

func (s *MemoryStore) DeleteMessage(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return ErrNotFound
	}
	delete(s.messages, id)
	return nil
}

// Messages returns the recipient's messages, unread first and newest first
// within each group.
func (s *MemoryStore) Messages(ctx context.Context, recipient string) ([]listing.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []listing.Message
	for _, m := range s.messages {
		if m.Recipient == recipient {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Read != out[j].Read {
			return !out[i].Read
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, u listing.User) (listing.User, error) {
	if err := ctx.Err(); err != nil {
		return listing.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if _, exists := s.users[u.ID]; exists {
		return listing.User{}, ErrConflict
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return listing.User{}, ErrConflict
		}
	}
	u.CreatedAt = s.now().UTC()
	s.users[u.ID] = cloneUser(u)
	return cloneUser(u), nil
}

func (s *MemoryStore) User(ctx context.Context, id string) (listing.User, error) {
	if err := ctx.Err(); err != nil {
		return listing.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return listing.User{}, ErrNotFound
	}
	return cloneUser(u), nil
}

// UserByEmail matches case-insensitively.
func (s *MemoryStore) UserByEmail(ctx context.Context, email string) (listing.User, error) {
	if err := ctx.Err(); err != nil {
		return listing.User{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return listing.User{}, ErrNotFound
}

func (s *MemoryStore) UpdateUser(ctx context.Context, u listing.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; !ok {
		return ErrNotFound
	}
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *MemoryStore) ModifyUser(ctx context.Context, id string, fn func(*listing.User) error) (listing.User, error) {
	if err := ctx.Err(); err != nil {
		return listing.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.users[id]
	if !ok {
		return listing.User{}, ErrNotFound
	}
	u := cloneUser(stored)
	if err := fn(&u); err != nil {
		return listing.User{}, err
	}
	u.ID = id
	s.users[id] = cloneUser(u)
	return u, nil
}

func cloneProperty(p listing.Property) listing.Property {
	p.Amenities = append([]string(nil), p.Amenities...)
	p.Images = append([]string(nil), p.Images...)
	return p
}

func cloneUser(u listing.User) listing.User {
	u.PasswordHash = append([]byte(nil), u.PasswordHash...)
	u.Providers = append([]string(nil), u.Providers...)
	u.Bookmarks = append([]string(nil), u.Bookmarks...)
	return u
}

func without(values []string, drop string) []string {
	out := values[:0:0]
	for _, v := range values {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}
