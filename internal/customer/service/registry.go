package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"onboarding/internal/customer/models"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/requestcontext"
)

const duplicateCustomerMessage = "customer with this mobile or PAN already exists"

// Registry owns customer identity: registration with deduplication on mobile
// and PAN, lookup, search, and the block/unblock lifecycle.
type Registry struct {
	customers CustomerStore
	documents DocumentLister
	options
}

// NewRegistry constructs a Registry.
func NewRegistry(customers CustomerStore, documents DocumentLister, opts ...Option) *Registry {
	return &Registry{customers: customers, documents: documents, options: newOptions(opts)}
}

// Register creates a PENDING, ACTIVE customer. The optimistic lookup gives a
// clean Conflict for the common case; the store's unique indexes settle races.
func (r *Registry) Register(ctx context.Context, in models.RegisterInput) (*models.Customer, error) {
	c, err := models.NewCustomer(id.NewCustomerID(), in, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	existing, err := r.customers.FindByMobileOrPanHash(ctx, c.Mobile, c.PanHash)
	switch {
	case err == nil && existing != nil:
		return nil, dErrors.New(dErrors.CodeConflict, duplicateCustomerMessage)
	case err != nil && !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing customer")
	}

	if err := r.customers.Create(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, duplicateCustomerMessage)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register customer")
	}

	r.logAudit(ctx, "customer_registered",
		"customer_id", c.ID.String(),
		"customer_code", c.CustomerCode)
	if r.metrics != nil {
		r.metrics.IncrementCustomersRegistered()
	}
	return c, nil
}

// GetByID loads a customer together with its KYC documents.
func (r *Registry) GetByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	var (
		c    *models.Customer
		docs []*models.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := r.customers.FindByID(gctx, customerID)
		if err != nil {
			return err
		}
		c = found
		return nil
	})
	g.Go(func() error {
		found, err := r.documents.ListByCustomer(gctx, customerID)
		if err != nil {
			return err
		}
		docs = found
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}

	c.KycDocuments = docs
	return c, nil
}

// Search finds customers by mobile and/or customer code.
func (r *Registry) Search(ctx context.Context, filter models.SearchFilter) ([]*models.Customer, error) {
	filter.Normalize()
	if filter.IsEmpty() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provide mobile or customerCode to search")
	}

	found, err := r.customers.Search(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search customers")
	}
	if len(found) == 0 {
		return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
	}
	return found, nil
}

// Block moves an ACTIVE customer to BLOCKED.
func (r *Registry) Block(ctx context.Context, customerID id.CustomerID) (*models.StatusChange, error) {
	return r.transition(ctx, customerID, models.CustomerStatusActive, models.CustomerStatusBlocked,
		"customer not found or already blocked", "customer blocked successfully", "customer_blocked")
}

// Unblock moves a BLOCKED customer back to ACTIVE.
func (r *Registry) Unblock(ctx context.Context, customerID id.CustomerID) (*models.StatusChange, error) {
	return r.transition(ctx, customerID, models.CustomerStatusBlocked, models.CustomerStatusActive,
		"customer not found or already unblocked", "customer unblocked successfully", "customer_unblocked")
}

func (r *Registry) transition(ctx context.Context, customerID id.CustomerID, from, to models.CustomerStatus, notFound, done, event string) (*models.StatusChange, error) {
	if err := r.customers.UpdateStatus(ctx, customerID, from, to, requestcontext.Now(ctx)); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, notFound)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update customer status")
	}

	r.logAudit(ctx, event, "customer_id", customerID.String())
	if r.metrics != nil {
		r.metrics.IncrementCustomerStatus(string(to))
	}
	return &models.StatusChange{Message: done, CustomerID: customerID}, nil
}
