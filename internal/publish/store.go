package publish

import (
	"fmt"
	"sort"
	"sync"
)

type planEntry struct {
	plan      *Plan
	cancelled bool
	release   func() error
}

// PlanStore holds previewed plans until they are executed or discarded.
// A single lock guards every entry and its cancellation flag.
type PlanStore struct {
	mu    sync.Mutex
	plans map[string]*planEntry
}

// NewPlanStore creates an empty store.
func NewPlanStore() *PlanStore {
	return &PlanStore{plans: make(map[string]*planEntry)}
}

// Put registers plan. release, if non-nil, is called once when the plan is
// removed and frees resources the plan's uploads read from.
func (s *PlanStore) Put(plan *Plan, release func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ID] = &planEntry{plan: plan, release: release}
}

// Get returns the plan with id, or ErrPlanNotFound.
func (s *PlanStore) Get(id string) (*Plan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	return e.plan, nil
}

// Cancel flags the plan so a running execute stops at its next check.
func (s *PlanStore) Cancel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.plans[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	e.cancelled = true
	return nil
}

// IsCancelled reports whether Cancel was called for id. Unknown plans are
// not cancelled.
func (s *PlanStore) IsCancelled(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.plans[id]
	return ok && e.cancelled
}

// Remove drops the plan and releases its resources. Removing an unknown
// plan is a no-op.
func (s *PlanStore) Remove(id string) error {
	s.mu.Lock()
	e, ok := s.plans[id]
	delete(s.plans, id)
	s.mu.Unlock()

	if !ok || e.release == nil {
		return nil
	}
	if err := e.release(); err != nil {
		return fmt.Errorf("releasing plan %s: %w", id, err)
	}
	return nil
}

// IDs returns the identifiers of every held plan, sorted.
func (s *PlanStore) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.plans))
	for id := range s.plans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of plans held.
func (s *PlanStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plans)
}
