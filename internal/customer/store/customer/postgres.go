package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"onboarding/internal/customer/models"
	"onboarding/internal/platform/postgres"
	id "onboarding/pkg/domain"
	"onboarding/pkg/platform/sentinel"
)

const customerColumns = `id, customer_code, first_name, middle_name, last_name, mobile,
	pan_masked, pan_hash, aadhaar_last4, kyc_status, status, created_at, updated_at`

// PostgresStore persists customers in the customers table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgres constructs a Postgres-backed customer store.
func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts c. Any unique constraint violation maps to sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Create(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES (:id, :customer_code, :first_name, :middle_name, :last_name, :mobile,
			:pan_masked, :pan_hash, :aadhaar_last4, :kyc_status, :status, :created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, c); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// FindByID returns the customer or sentinel.ErrNotFound.
func (s *PostgresStore) FindByID(ctx context.Context, customerID id.CustomerID) (*models.Customer, error) {
	var c models.Customer
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	if err := s.db.GetContext(ctx, &c, query, customerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find customer by id: %w", err)
	}
	return &c, nil
}

// Exists reports whether a customer row exists.
func (s *PostgresStore) Exists(ctx context.Context, customerID id.CustomerID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1)`
	if err := s.db.GetContext(ctx, &exists, query, customerID); err != nil {
		return false, fmt.Errorf("check customer exists: %w", err)
	}
	return exists, nil
}

// FindByMobileOrPanHash returns any customer holding either identity anchor.
func (s *PostgresStore) FindByMobileOrPanHash(ctx context.Context, mobile, panHash string) (*models.Customer, error) {
	var c models.Customer
	query := `SELECT ` + customerColumns + ` FROM customers WHERE mobile = $1 OR pan_hash = $2 LIMIT 1`
	if err := s.db.GetContext(ctx, &c, query, mobile, panHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find customer by mobile or pan: %w", err)
	}
	return &c, nil
}

// Search returns customers matching every set filter field, oldest first.
func (s *PostgresStore) Search(ctx context.Context, filter models.SearchFilter) ([]*models.Customer, error) {
	var out []*models.Customer
	query := `
		SELECT ` + customerColumns + `
		FROM customers
		WHERE ($1 = '' OR mobile = $1)
		  AND ($2 = '' OR customer_code = $2)
		ORDER BY created_at
	`
	if err := s.db.SelectContext(ctx, &out, query, filter.Mobile, filter.CustomerCode); err != nil {
		return nil, fmt.Errorf("search customers: %w", err)
	}
	return out, nil
}

// UpdateStatus moves a customer from one status to another in a single
// conditional statement. Zero affected rows maps to sentinel.ErrNotFound.
func (s *PostgresStore) UpdateStatus(ctx context.Context, customerID id.CustomerID, from, to models.CustomerStatus, at time.Time) error {
	query := `UPDATE customers SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := s.db.ExecContext(ctx, query, customerID, from, to, at)
	if err != nil {
		return fmt.Errorf("update customer status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update customer status: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
