// Package customer persists customer aggregates.
package customer

import (
	"context"
	"sort"
	"sync"
	"time"

	"onboarding/internal/customer/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
)

// InMemory keeps customers in maps and enforces the same unique indexes as
// the Postgres schema: mobile, pan_hash and customer_code.
type InMemory struct {
	mu       sync.RWMutex
	byID     map[id.CustomerID]*models.Customer
	byMobile map[string]id.CustomerID
	byPan    map[string]id.CustomerID
	byCode   map[string]id.CustomerID
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[id.CustomerID]*models.Customer),
		byMobile: make(map[string]id.CustomerID),
		byPan:    make(map[string]id.CustomerID),
		byCode:   make(map[string]id.CustomerID),
	}
}

// Create inserts c. Returns sentinel.ErrAlreadyUsed if any unique key is taken.
func (s *InMemory) Create(_ context.Context, c *models.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[c.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byMobile[c.Mobile]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byPan[c.PanHash]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byCode[c.CustomerCode]; ok {
		return sentinel.ErrAlreadyUsed
	}

	stored := clone(c)
	s.byID[c.ID] = stored
	s.byMobile[c.Mobile] = c.ID
	s.byPan[c.PanHash] = c.ID
	s.byCode[c.CustomerCode] = c.ID
	return nil
}

// FindByID returns the customer or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, customerID id.CustomerID) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[customerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

// Exists reports whether a customer row exists.
func (s *InMemory) Exists(_ context.Context, customerID id.CustomerID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byID[customerID]
	return ok, nil
}

// FindByMobileOrPanHash returns any customer holding either identity anchor.
func (s *InMemory) FindByMobileOrPanHash(_ context.Context, mobile, panHash string) (*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cid, ok := s.byMobile[mobile]; ok {
		return clone(s.byID[cid]), nil
	}
	if cid, ok := s.byPan[panHash]; ok {
		return clone(s.byID[cid]), nil
	}
	return nil, sentinel.ErrNotFound
}

// Search returns customers matching every set filter field, oldest first.
func (s *InMemory) Search(_ context.Context, filter models.SearchFilter) ([]*models.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Customer
	for _, c := range s.byID {
		if filter.Mobile != "" && c.Mobile != filter.Mobile {
			continue
		}
		if filter.CustomerCode != "" && c.CustomerCode != filter.CustomerCode {
			continue
		}
		out = append(out, clone(c))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateStatus moves a customer from one status to another. Returns
// sentinel.ErrNotFound when the customer is absent or not in status from.
func (s *InMemory) UpdateStatus(_ context.Context, customerID id.CustomerID, from, to models.CustomerStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[customerID]
	if !ok || c.Status != from {
		return sentinel.ErrNotFound
	}
	c.Status = to
	c.UpdatedAt = at
	return nil
}

func clone(c *models.Customer) *models.Customer {
	cp := *c
	cp.KycDocuments = nil
	return &cp
}
