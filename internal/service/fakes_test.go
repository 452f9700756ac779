package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/encanta/encanta/internal/domain"
)

var errStoreDown = errors.New("connection refused")

// memStore is an in-memory domain.ResourceStore for gateway tests
type memStore[T any, P any] struct {
	mu      sync.Mutex
	entity  string
	items   map[string]*T
	order   []string
	idOf    func(*T) string
	scopeOf func(*T) string
	apply   func(*T, P)
	err     error

	inserts int
	updates int
	deletes int
}

func newMemStore[T any, P any](entity string, idOf, scopeOf func(*T) string, apply func(*T, P)) *memStore[T, P] {
	return &memStore[T, P]{
		entity:  entity,
		items:   map[string]*T{},
		idOf:    idOf,
		scopeOf: scopeOf,
		apply:   apply,
	}
}

func (m *memStore[T, P]) put(item *T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.idOf(item)
	if _, ok := m.items[id]; !ok {
		m.order = append(m.order, id)
	}
	m.items[id] = item
}

func (m *memStore[T, P]) Insert(_ context.Context, item *T) error {
	if m.err != nil {
		return m.err
	}
	m.put(item)
	m.mu.Lock()
	m.inserts++
	m.mu.Unlock()
	return nil
}

func (m *memStore[T, P]) FindMany(_ context.Context, query domain.ListQuery) ([]*T, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*T{}
	for _, id := range m.order {
		item, ok := m.items[id]
		if ok && m.scopeOf(item) == query.ScopeID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memStore[T, P]) FindOne(_ context.Context, id string) (*T, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, &domain.ErrNotFound{Entity: m.entity, ID: id}
	}
	return item, nil
}

func (m *memStore[T, P]) Update(_ context.Context, id string, patch P) (*T, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, &domain.ErrNotFound{Entity: m.entity, ID: id}
	}
	m.apply(item, patch)
	m.updates++
	return item, nil
}

func (m *memStore[T, P]) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return &domain.ErrNotFound{Entity: m.entity, ID: id}
	}
	delete(m.items, id)
	m.deletes++
	return nil
}

func (m *memStore[T, P]) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// memMemberships is an in-memory domain.MembershipRepository
type memMemberships struct {
	mu      sync.Mutex
	members map[string]*domain.TeamMember
	err     error
}

func newMemMemberships() *memMemberships {
	return &memMemberships{members: map[string]*domain.TeamMember{}}
}

func memberKey(workspaceID, userID string) string { return workspaceID + "/" + userID }

func (m *memMemberships) grant(workspaceID, userID string, role domain.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[memberKey(workspaceID, userID)] = &domain.TeamMember{
		ID:          memberKey(workspaceID, userID),
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
	}
}

func (m *memMemberships) GetMembership(_ context.Context, userID, workspaceID string) (*domain.TeamMember, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[memberKey(workspaceID, userID)]
	if !ok {
		return nil, &domain.ErrNotFound{Entity: "team member", ID: memberKey(workspaceID, userID)}
	}
	copied := *member
	return &copied, nil
}

func (m *memMemberships) ListMembers(_ context.Context, workspaceID string) ([]*domain.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*domain.TeamMember{}
	for _, member := range m.members {
		if member.WorkspaceID == workspaceID {
			out = append(out, member)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memMemberships) AddMember(_ context.Context, member *domain.TeamMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memberKey(member.WorkspaceID, member.UserID)
	if _, ok := m.members[key]; ok {
		return domain.NewValidationError("user is already a member of this workspace")
	}
	m.members[key] = member
	return nil
}

func (m *memMemberships) UpdateRole(_ context.Context, workspaceID, userID string, role domain.Role) (*domain.TeamMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.members[memberKey(workspaceID, userID)]
	if !ok {
		return nil, &domain.ErrNotFound{Entity: "team member", ID: memberKey(workspaceID, userID)}
	}
	member.Role = role
	return member, nil
}

func (m *memMemberships) RemoveMember(_ context.Context, workspaceID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memberKey(workspaceID, userID)
	if _, ok := m.members[key]; !ok {
		return &domain.ErrNotFound{Entity: "team member", ID: key}
	}
	delete(m.members, key)
	return nil
}

func withUser(userID string) context.Context {
	return domain.WithIdentity(context.Background(), &domain.Identity{UserID: userID, Email: userID + "@example.com"})
}

func strPtr(s string) *string { return &s }
