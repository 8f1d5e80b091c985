package service

import (
	"context"
	"errors"

	"onboarding/internal/customer/models"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/requestcontext"
)

// AddressBook manages customer addresses, at most one per address type.
type AddressBook struct {
	customers CustomerChecker
	addresses AddressStore
	options
}

// NewAddressBook constructs an AddressBook.
func NewAddressBook(customers CustomerChecker, addresses AddressStore, opts ...Option) *AddressBook {
	return &AddressBook{customers: customers, addresses: addresses, options: newOptions(opts)}
}

// Create adds an address for an existing customer.
func (b *AddressBook) Create(ctx context.Context, in models.CreateAddressInput) (*models.Address, error) {
	a, err := models.NewAddress(id.NewAddressID(), in, requestcontext.Now(ctx))
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	if err := b.requireCustomer(ctx, in.CustomerID); err != nil {
		return nil, err
	}

	conflict := dErrors.New(dErrors.CodeConflict, string(a.AddressType)+" address already exists for customer")
	_, err = b.addresses.FindByCustomerAndType(ctx, a.CustomerID, a.AddressType)
	switch {
	case err == nil:
		return nil, conflict
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing address")
	}

	if err := b.addresses.Create(ctx, a); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, conflict
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create address")
	}

	b.logAudit(ctx, "customer_address_created",
		"customer_id", a.CustomerID.String(),
		"address_id", a.ID.String(),
		"address_type", string(a.AddressType))
	if b.metrics != nil {
		b.metrics.IncrementAddressesCreated()
	}
	return a, nil
}

// ListByCustomer returns a customer's addresses. An empty result is NotFound,
// with the message telling an unknown customer apart from one with no addresses.
func (b *AddressBook) ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.Address, error) {
	found, err := b.addresses.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list addresses")
	}
	if len(found) > 0 {
		return found, nil
	}

	if err := b.requireCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return nil, dErrors.New(dErrors.CodeNotFound, "address not found for customer")
}

func (b *AddressBook) requireCustomer(ctx context.Context, customerID id.CustomerID) error {
	exists, err := b.customers.Exists(ctx, customerID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	if !exists {
		return dErrors.New(dErrors.CodeNotFound, "customer not found")
	}
	return nil
}
