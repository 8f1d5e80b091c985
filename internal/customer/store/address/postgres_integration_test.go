//go:build integration

package address_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"onboarding/internal/customer/models"
	"onboarding/internal/customer/store/address"
	"onboarding/internal/customer/store/customer"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/fingerprint"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres  *containers.PostgresContainer
	store     *address.PostgresStore
	customers *customer.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = address.NewPostgres(s.postgres.DB)
	s.customers = customer.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "customer_kyc_documents", "customer_addresses", "customers")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) seedCustomer(ctx context.Context) id.CustomerID {
	now := time.Now().UTC()
	c := &models.Customer{
		ID: id.NewCustomerID(), CustomerCode: models.NewCustomerCode(),
		FirstName: "Asha", LastName: "Rao", Mobile: "9876543210",
		PanMasked: "ABCDE****F", PanHash: fingerprint.PAN("ABCDE1234F"),
		KycStatus: models.KycStatusPending, Status: models.CustomerStatusActive,
		CreatedAt: now, UpdatedAt: now,
	}
	s.Require().NoError(s.customers.Create(ctx, c))
	return c.ID
}

func (s *PostgresStoreSuite) newAddress(customerID id.CustomerID, addressType models.AddressType) *models.Address {
	now := time.Now().UTC()
	return &models.Address{
		ID: id.NewAddressID(), CustomerID: customerID, AddressType: addressType,
		Line1: "12 MG Road", City: "Pune", State: "Maharashtra", Country: "India",
		Pincode: "411001", IsActive: true, CreatedAt: now, UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestUniquePerCustomerAndType() {
	ctx := context.Background()
	customerID := s.seedCustomer(ctx)

	s.Require().NoError(s.store.Create(ctx, s.newAddress(customerID, models.AddressTypePermanent)))
	err := s.store.Create(ctx, s.newAddress(customerID, models.AddressTypePermanent))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	out, err := s.store.ListByCustomer(ctx, customerID)
	s.Require().NoError(err)
	s.Len(out, 1)
	s.Empty(out[0].Line2)
}

func (s *PostgresStoreSuite) TestMissingParentCustomer() {
	err := s.store.Create(context.Background(), s.newAddress(id.NewCustomerID(), models.AddressTypeOffice))
	s.ErrorIs(err, sentinel.ErrNotFound)
}
