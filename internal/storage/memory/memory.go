// Package memory implements the storage interfaces with in-process maps.
// It backs tests and the "memory" storage driver; nothing survives a restart.
package memory

import (
	"bytes"
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/mvaleed/seedwork/internal/domain"
	"github.com/mvaleed/seedwork/internal/storage"
)

// Store holds every record. The zero value is not usable; call New.
type Store struct {
	mu    sync.RWMutex
	users map[uuid.UUID]domain.User
	roles map[uuid.UUID]domain.Role
	// assignments maps a user to the set of its role IDs.
	assignments map[uuid.UUID]map[uuid.UUID]struct{}

	// txMu serialises transactions so a rollback restores a consistent snapshot.
	txMu sync.Mutex
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:       make(map[uuid.UUID]domain.User),
		roles:       make(map[uuid.UUID]domain.Role),
		assignments: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Repositories returns repositories backed by this store.
func (s *Store) Repositories() *storage.Repositories {
	return &storage.Repositories{
		Users: &UserRepository{s: s},
		Roles: &RoleRepository{s: s},
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WithTransaction implements storage.Transactor. Changes made by fn are
// undone when it returns an error. Writes from outside the transaction that
// land while fn runs are undone too.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	users       map[uuid.UUID]domain.User
	roles       map[uuid.UUID]domain.Role
	assignments map[uuid.UUID]map[uuid.UUID]struct{}
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		users:       make(map[uuid.UUID]domain.User, len(s.users)),
		roles:       make(map[uuid.UUID]domain.Role, len(s.roles)),
		assignments: make(map[uuid.UUID]map[uuid.UUID]struct{}, len(s.assignments)),
	}
	for id, u := range s.users {
		snap.users[id] = cloneUser(u)
	}
	for id, r := range s.roles {
		snap.roles[id] = cloneRole(r)
	}
	for id, set := range s.assignments {
		snap.assignments[id] = maps.Clone(set)
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = snap.users
	s.roles = snap.roles
	s.assignments = snap.assignments
}

func cloneUser(u domain.User) domain.User {
	if u.Phone != nil {
		phone := *u.Phone
		u.Phone = &phone
	}
	if u.DeletedAt != nil {
		at := *u.DeletedAt
		u.DeletedAt = &at
	}
	// Roles are loaded separately and never stored on the user.
	u.Roles = nil
	return u
}

func cloneRole(r domain.Role) domain.Role {
	r.Permissions = slices.Clone(r.Permissions)
	return r
}

// naturalOrder sorts records the way the PostgreSQL listings break ties:
// creation time, then ID.
func naturalOrder[T any](items []T, created func(T) int64, id func(T) uuid.UUID) {
	slices.SortFunc(items, func(a, b T) int {
		if c := cmp.Compare(created(a), created(b)); c != 0 {
			return c
		}
		ia, ib := id(a), id(b)
		return bytes.Compare(ia[:], ib[:])
	})
}
