package document

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"onboarding/internal/customer/models"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
)

type DocumentStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *DocumentStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestDocumentStoreSuite(t *testing.T) {
	suite.Run(t, new(DocumentStoreSuite))
}

func newDocument(customerID id.CustomerID, docType models.DocumentType) *models.Document {
	now := time.Now()
	in := models.UploadInput{CustomerID: customerID, DocumentType: docType, MimeType: "application/pdf", Size: 3}
	return models.NewDocument(id.NewDocumentID(), in, models.ObjectKey(customerID, docType, now), "hash", now)
}

func (s *DocumentStoreSuite) TestOneDocumentPerType() {
	customerID := id.NewCustomerID()
	s.Require().NoError(s.store.Create(s.ctx, newDocument(customerID, models.DocumentTypePAN)))

	s.Run("rejects second document of the same type", func() {
		err := s.store.Create(s.ctx, newDocument(customerID, models.DocumentTypePAN))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("accepts another type", func() {
		s.NoError(s.store.Create(s.ctx, newDocument(customerID, models.DocumentTypeAadhaar)))
	})

	s.Run("lists only the customer's documents", func() {
		s.Require().NoError(s.store.Create(s.ctx, newDocument(id.NewCustomerID(), models.DocumentTypePAN)))
		out, err := s.store.ListByCustomer(s.ctx, customerID)
		s.Require().NoError(err)
		s.Len(out, 2)
	})

	s.Run("returns ErrNotFound for a missing type", func() {
		_, err := s.store.FindByCustomerAndType(s.ctx, customerID, models.DocumentTypeAddressProof)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *DocumentStoreSuite) TestSaveDecision() {
	customerID := id.NewCustomerID()
	doc := newDocument(customerID, models.DocumentTypePAN)
	s.Require().NoError(s.store.Create(s.ctx, doc))
	at := time.Now()

	s.Run("persists a rejection", func() {
		found, err := s.store.FindByCustomerAndType(s.ctx, customerID, models.DocumentTypePAN)
		s.Require().NoError(err)
		s.Require().NoError(found.ApplyDecision(models.DocumentStatusRejected, models.VerifierAdmin, at))
		s.Require().NoError(s.store.SaveDecision(s.ctx, found))

		again, err := s.store.FindByCustomerAndType(s.ctx, customerID, models.DocumentTypePAN)
		s.Require().NoError(err)
		s.Equal(models.DocumentStatusRejected, again.Status)
		s.Require().NotNil(again.VerifiedBy)
		s.Equal(models.VerifierAdmin, *again.VerifiedBy)
	})

	s.Run("never overwrites a verified row", func() {
		found, err := s.store.FindByCustomerAndType(s.ctx, customerID, models.DocumentTypePAN)
		s.Require().NoError(err)
		s.Require().NoError(found.ApplyDecision(models.DocumentStatusVerified, models.VerifierAdmin, at))
		s.Require().NoError(s.store.SaveDecision(s.ctx, found))

		stale := *found
		stale.Status = models.DocumentStatusRejected
		s.ErrorIs(s.store.SaveDecision(s.ctx, &stale), sentinel.ErrInvalidState)

		again, err := s.store.FindByCustomerAndType(s.ctx, customerID, models.DocumentTypePAN)
		s.Require().NoError(err)
		s.Equal(models.DocumentStatusVerified, again.Status)
	})
}

func (s *DocumentStoreSuite) TestConcurrentApprovals() {
	customerID := id.NewCustomerID()
	doc := newDocument(customerID, models.DocumentTypeAadhaar)
	s.Require().NoError(s.store.Create(s.ctx, doc))

	const goroutines = 20
	var wg sync.WaitGroup
	var wins, losses atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d := *doc
			if err := d.ApplyDecision(models.DocumentStatusVerified, models.VerifierAdmin, time.Now()); err != nil {
				return
			}
			switch err := s.store.SaveDecision(s.ctx, &d); err {
			case nil:
				wins.Add(1)
			case sentinel.ErrInvalidState:
				losses.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), wins.Load())
	s.Equal(int32(goroutines-1), losses.Load())
}
