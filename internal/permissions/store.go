package permissions

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/EdSoftcase/CRM-NEXUS-sub000/internal/log"
)

// Persister is the durable key-value collaborator holding the serialized
// matrix overrides. The biz setting service implements it.
type Persister interface {
	LoadMatrix(ctx context.Context) (data []byte, ok bool, err error)
	SaveMatrix(ctx context.Context, data []byte) error
}

// Store owns the in-memory permission matrix and its persistence. Queries are
// synchronous and allocation-light, safe to invoke on every render.
type Store struct {
	mu        sync.RWMutex
	matrix    Matrix
	persister Persister
}

// NewStore builds a store seeded with the default matrix. persister may be
// nil, in which case updates stay in memory only.
func NewStore(persister Persister) *Store {
	return &Store{
		matrix:    DefaultMatrix(),
		persister: persister,
	}
}

// Load applies persisted overrides on top of a freshly rebuilt default
// matrix. A missing document is normal. A malformed document is an operator
// incident, not a caller error: it is logged and the defaults stand.
func (s *Store) Load(ctx context.Context) {
	defaults := DefaultMatrix()

	s.mu.Lock()
	s.matrix = defaults
	s.mu.Unlock()

	if s.persister == nil {
		return
	}

	data, ok, err := s.persister.LoadMatrix(ctx)
	if err != nil {
		log.Warn(ctx, "failed to load persisted permission matrix, using defaults", log.Cause(err))
		return
	}

	if !ok {
		return
	}

	var overrides Matrix
	if err := json.Unmarshal(data, &overrides); err != nil {
		log.Warn(ctx, "malformed persisted permission matrix, using defaults", log.Cause(err))
		return
	}

	s.mu.Lock()
	s.matrix.MergeOverrides(overrides)
	s.mu.Unlock()
}

// HasPermission answers a permission query. See Matrix.HasPermission for the
// contract.
func (s *Store) HasPermission(role Role, module Module, action Action) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.matrix.HasPermission(role, module, action)
}

// CanView is HasPermission with the default action.
func (s *Store) CanView(role Role, module Module) bool {
	return s.HasPermission(role, module, ActionView)
}

// Snapshot returns a copy of the current matrix for admin screens.
func (s *Store) Snapshot() Matrix {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.matrix.Clone()
}

// UpdatePermission merges a single cell into the matrix and persists the
// entire matrix in one write. The in-memory update and the persisted document
// never diverge partially: on a failed write the cell change is rolled back.
func (s *Store) UpdatePermission(ctx context.Context, role Role, module Module, action Action, value bool) error {
	if !IsValidRole(role) {
		return fmt.Errorf("permissions: unknown role %q", role)
	}

	if !IsValidModule(module) {
		return fmt.Errorf("permissions: unknown module %q", module)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous, hadCell := s.matrix.Cell(role, module)
	s.matrix.SetCell(role, module, previous.With(action, value))

	if s.persister == nil {
		return nil
	}

	data, err := json.Marshal(s.matrix)
	if err != nil {
		// Matrix is plain maps and bools; this cannot happen in practice.
		return fmt.Errorf("permissions: marshal matrix: %w", err)
	}

	if err := s.persister.SaveMatrix(ctx, data); err != nil {
		if hadCell {
			s.matrix.SetCell(role, module, previous)
		}

		return fmt.Errorf("permissions: persist matrix: %w", err)
	}

	return nil
}
