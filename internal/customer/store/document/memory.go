// Package document persists the KYC document ledger.
package document

import (
	"context"
	"sort"
	"sync"
	"time"

	"onboarding/internal/customer/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
)

type ownerKey struct {
	customerID   id.CustomerID
	documentType models.DocumentType
}

// InMemory keeps ledger rows in a map with the (customer, type) unique index.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.DocumentID]*models.Document
	byOwner map[ownerKey]id.DocumentID
}

// NewInMemory creates an empty store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[id.DocumentID]*models.Document),
		byOwner: make(map[ownerKey]id.DocumentID),
	}
}

// Create inserts d. Returns sentinel.ErrAlreadyUsed when the customer already
// has a document of the same type.
func (s *InMemory) Create(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ownerKey{customerID: d.CustomerID, documentType: d.DocumentType}
	if _, ok := s.byOwner[key]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.byID[d.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[d.ID] = clone(d)
	s.byOwner[key] = d.ID
	return nil
}

// FindByCustomerAndType returns the ledger row or sentinel.ErrNotFound.
func (s *InMemory) FindByCustomerAndType(_ context.Context, customerID id.CustomerID, docType models.DocumentType) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docID, ok := s.byOwner[ownerKey{customerID: customerID, documentType: docType}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.byID[docID]), nil
}

// ListByCustomer returns a customer's documents, oldest first.
func (s *InMemory) ListByCustomer(_ context.Context, customerID id.CustomerID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Document
	for _, d := range s.byID {
		if d.CustomerID == customerID {
			out = append(out, clone(d))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// SaveDecision persists the decision fields of d unless the stored row is
// already VERIFIED, in which case sentinel.ErrInvalidState is returned.
func (s *InMemory) SaveDecision(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[d.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.IsVerified() {
		return sentinel.ErrInvalidState
	}
	stored.Status = d.Status
	stored.VerifiedAt = copyTime(d)
	stored.VerifiedBy = copyVerifier(d)
	stored.UpdatedAt = d.UpdatedAt
	return nil
}

func clone(d *models.Document) *models.Document {
	cp := *d
	cp.VerifiedAt = copyTime(d)
	cp.VerifiedBy = copyVerifier(d)
	return &cp
}

func copyTime(d *models.Document) *time.Time {
	if d.VerifiedAt == nil {
		return nil
	}
	t := *d.VerifiedAt
	return &t
}

func copyVerifier(d *models.Document) *models.Verifier {
	if d.VerifiedBy == nil {
		return nil
	}
	v := *d.VerifiedBy
	return &v
}
