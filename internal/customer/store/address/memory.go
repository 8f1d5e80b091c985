// Package address persists customer addresses.
package address

import (
	"context"
	"sort"
	"sync"

	"onboarding/internal/customer/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
)

type ownerKey struct {
	customerID  id.CustomerID
	addressType models.AddressType
}

// InMemory keeps addresses in a map with the (customer, type) unique index.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.AddressID]*models.Address
	byOwner map[ownerKey]id.AddressID
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.AddressID]*models.Address),
		byOwner: make(map[ownerKey]id.AddressID),
	}
}

// Create inserts a. Returns sentinel.ErrAlreadyUsed when the customer
// already holds an address of the same type.
func (s *InMemory) Create(_ context.Context, a *models.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerKey{customerID: a.CustomerID, addressType: a.AddressType}
	if _, ok := s.byOwner[key]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byID[a.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *a
	s.byID[a.ID] = &cp
	s.byOwner[key] = a.ID
	return nil
}

// FindByCustomerAndType returns the address of the given type or sentinel.ErrNotFound.
func (s *InMemory) FindByCustomerAndType(_ context.Context, customerID id.CustomerID, addressType models.AddressType) (*models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addrID, ok := s.byOwner[ownerKey{customerID: customerID, addressType: addressType}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[addrID]
	return &cp, nil
}

// ListByCustomer returns every address of a customer, oldest first.
func (s *InMemory) ListByCustomer(_ context.Context, customerID id.CustomerID) ([]*models.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Address
	for _, a := range s.byID {
		if a.CustomerID == customerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
