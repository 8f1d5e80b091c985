package service

import (
	"context"
	"time"

	"onboarding/internal/customer/models"
	id "onboarding/pkg/domain"
)

type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	Exists(ctx context.Context, customerID id.CustomerID) (bool, error)
	FindByMobileOrPanHash(ctx context.Context, mobile, panHash string) (*models.Customer, error)
	Search(ctx context.Context, filter models.SearchFilter) ([]*models.Customer, error)
	UpdateStatus(ctx context.Context, customerID id.CustomerID, from, to models.CustomerStatus, at time.Time) error
}

// CustomerChecker is the slice of CustomerStore the address book and ledger need.
type CustomerChecker interface {
	Exists(ctx context.Context, customerID id.CustomerID) (bool, error)
}

type AddressStore interface {
	Create(ctx context.Context, a *models.Address) error
	FindByCustomerAndType(ctx context.Context, customerID id.CustomerID, addressType models.AddressType) (*models.Address, error)
	ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.Address, error)
}

type DocumentStore interface {
	Create(ctx context.Context, d *models.Document) error
	FindByCustomerAndType(ctx context.Context, customerID id.CustomerID, docType models.DocumentType) (*models.Document, error)
	ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.Document, error)
	SaveDecision(ctx context.Context, d *models.Document) error
}

// DocumentLister is the slice of DocumentStore the registry needs to embed
// documents into customer reads.
type DocumentLister interface {
	ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.Document, error)
}
