// Package repositorytest provides in-memory repository implementations for tests.
package repositorytest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mutooni/mutooni-api/internal/domain"
	"github.com/mutooni/mutooni-api/internal/repository"
)

// Users is an in-memory UserRepository that enforces subject uniqueness like the
// database constraint does.
type Users struct {
	mu        sync.Mutex
	byID      map[string]domain.User
	bySubject map[string]string
	order     []string

	// AfterLookupMiss runs after GetBySubject misses and before it returns. Tests use it to
	// line up concurrent callers between lookup and insert.
	AfterLookupMiss func(subject string)
	// Err, when set, is returned by every call.
	Err error

	creates int
}

var _ repository.UserRepository = (*Users)(nil)

// NewUsers returns an empty store seeded with the given users.
func NewUsers(seed ...domain.User) *Users {
	u := &Users{byID: map[string]domain.User{}, bySubject: map[string]string{}}
	for _, user := range seed {
		user := user
		_ = u.Create(context.Background(), &user)
	}
	u.creates = 0
	return u
}

// Creates returns the number of successful inserts since construction.
func (u *Users) Creates() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.creates
}

// Count returns the number of stored users.
func (u *Users) Count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.byID)
}

func (u *Users) Create(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}
	if _, exists := u.bySubject[user.Subject]; exists {
		return repository.ErrSubjectTaken
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	u.byID[user.ID] = copyUser(*user)
	u.bySubject[user.Subject] = user.ID
	u.order = append(u.order, user.ID)
	u.creates++
	return nil
}

func (u *Users) Update(_ context.Context, user *domain.User) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}
	existing, ok := u.byID[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Email = user.Email
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	existing.Role = user.Role
	existing.Active = user.Active
	existing.UpdatedAt = time.Now().UTC()
	user.UpdatedAt = existing.UpdatedAt
	u.byID[user.ID] = existing
	return nil
}

func (u *Users) SetPassword(_ context.Context, id string, hash string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}
	existing, ok := u.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	existing.PasswordHash = &hash
	existing.UpdatedAt = time.Now().UTC()
	u.byID[id] = existing
	return nil
}

func (u *Users) Delete(_ context.Context, id string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return u.Err
	}
	existing, ok := u.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(u.byID, id)
	delete(u.bySubject, existing.Subject)
	for i, candidate := range u.order {
		if candidate == id {
			u.order = append(u.order[:i], u.order[i+1:]...)
			break
		}
	}
	return nil
}

func (u *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	existing, ok := u.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := copyUser(existing)
	return &out, nil
}

func (u *Users) GetBySubject(_ context.Context, subject string) (*domain.User, error) {
	u.mu.Lock()
	if u.Err != nil {
		defer u.mu.Unlock()
		return nil, u.Err
	}
	id, ok := u.bySubject[subject]
	if ok {
		out := copyUser(u.byID[id])
		u.mu.Unlock()
		return &out, nil
	}
	hook := u.AfterLookupMiss
	u.mu.Unlock()

	if hook != nil {
		hook(subject)
	}
	return nil, repository.ErrNotFound
}

func (u *Users) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.Err != nil {
		return nil, u.Err
	}
	result := []domain.User{}
	for _, id := range u.order {
		user := u.byID[id]
		if filter.ID != nil && user.ID != *filter.ID {
			continue
		}
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		if filter.Search != nil && !matchesAny(*filter.Search, user.Subject, user.Email, user.FirstName+" "+user.LastName) {
			continue
		}
		result = append(result, copyUser(user))
	}
	return page(result, filter.Limit, filter.Offset), nil
}

func copyUser(user domain.User) domain.User {
	if user.PasswordHash != nil {
		hash := *user.PasswordHash
		user.PasswordHash = &hash
	}
	return user
}

func matchesAny(search string, values ...string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}
	for _, value := range values {
		if strings.Contains(strings.ToLower(value), needle) {
			return true
		}
	}
	return false
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
