package address

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"onboarding/internal/customer/models"
	"onboarding/internal/platform/postgres"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
)

const addressColumns = `id, customer_id, address_type, line1, line2, city, state, country,
	pincode, is_active, created_at, updated_at`

// PostgresStore persists addresses in the customer_addresses table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgres constructs a Postgres-backed address store.
func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a. A (customer, type) collision maps to sentinel.ErrAlreadyUsed
// and a missing parent customer maps to sentinel.ErrNotFound.
func (s *PostgresStore) Create(ctx context.Context, a *models.Address) error {
	query := `
		INSERT INTO customer_addresses (` + addressColumns + `)
		VALUES (:id, :customer_id, :address_type, :line1, :line2, :city, :state, :country,
			:pincode, :is_active, :created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, a); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return sentinel.ErrAlreadyUsed
		}
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

// FindByCustomerAndType returns the address of the given type or sentinel.ErrNotFound.
func (s *PostgresStore) FindByCustomerAndType(ctx context.Context, customerID id.CustomerID, addressType models.AddressType) (*models.Address, error) {
	var a models.Address
	query := `SELECT ` + addressColumns + ` FROM customer_addresses WHERE customer_id = $1 AND address_type = $2`
	if err := s.db.GetContext(ctx, &a, query, customerID, addressType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find address: %w", err)
	}
	return &a, nil
}

// ListByCustomer returns every address of a customer, oldest first.
func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.Address, error) {
	var out []*models.Address
	query := `SELECT ` + addressColumns + ` FROM customer_addresses WHERE customer_id = $1 ORDER BY created_at`
	if err := s.db.SelectContext(ctx, &out, query, customerID); err != nil {
		return nil, fmt.Errorf("list addresses: %w", err)
	}
	return out, nil
}
