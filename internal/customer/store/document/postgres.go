package document

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

const documentColumns = `id, customer_id, document_type, object_key, document_hash, mime_type,
	file_size, status, verified_at, verified_by, created_at, updated_at`

// PostgresStore persists the ledger in the customer_kyc_documents table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgres constructs a Postgres-backed document store.
func NewPostgres(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts d. A (customer, type) collision maps to sentinel.ErrAlreadyUsed
// and a missing parent customer maps to sentinel.ErrNotFound.
func (s *PostgresStore) Create(ctx context.Context, d *models.Document) error {
	query := `
		INSERT INTO customer_kyc_documents (` + documentColumns + `)
		VALUES (:id, :customer_id, :document_type, :object_key, :document_hash, :mime_type,
			:file_size, :status, :verified_at, :verified_by, :created_at, :updated_at)
	`
	if _, err := s.db.NamedExecContext(ctx, query, d); err != nil {
		if postgres.IsUniqueViolation(err, "") {
			return sentinel.ErrAlreadyUsed
		}
		if postgres.IsForeignKeyViolation(err) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("insert kyc document: %w", err)
	}
	return nil
}

// FindByCustomerAndType returns the ledger row or sentinel.ErrNotFound.
func (s *PostgresStore) FindByCustomerAndType(ctx context.Context, customerID id.CustomerID, docType models.DocumentType) (*models.Document, error) {
	var d models.Document
	query := `SELECT ` + documentColumns + ` FROM customer_kyc_documents WHERE customer_id = $1 AND document_type = $2`
	if err := s.db.GetContext(ctx, &d, query, customerID, docType); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find kyc document: %w", err)
	}
	return &d, nil
}

// ListByCustomer returns a customer's documents, oldest first.
func (s *PostgresStore) ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*models.Document, error) {
	var out []*models.Document
	query := `SELECT ` + documentColumns + ` FROM customer_kyc_documents WHERE customer_id = $1 ORDER BY created_at`
	if err := s.db.SelectContext(ctx, &out, query, customerID); err != nil {
		return nil, fmt.Errorf("list kyc documents: %w", err)
	}
	return out, nil
}

// SaveDecision writes the decision fields of d in one conditional statement
// that never overwrites a VERIFIED row. A losing concurrent approval sees
// sentinel.ErrInvalidState; a row deleted since it was read (for example by a
// customer cascade) sees sentinel.ErrNotFound.
func (s *PostgresStore) SaveDecision(ctx context.Context, d *models.Document) error {
	query := `
		UPDATE customer_kyc_documents
		SET status = :status, verified_at = :verified_at, verified_by = :verified_by, updated_at = :updated_at
		WHERE id = :id AND status <> 'VERIFIED'
	`
	res, err := s.db.NamedExecContext(ctx, query, d)
	if err != nil {
		return fmt.Errorf("save kyc decision: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save kyc decision: %w", err)
	}
	if rows == 0 {
		return s.decisionConflict(ctx, d.ID)
	}
	return nil
}

// decisionConflict explains a zero-row decision update. VERIFIED is terminal
// and deleted rows stay deleted, so the re-read cannot race back.
func (s *PostgresStore) decisionConflict(ctx context.Context, documentID id.DocumentID) error {
	var status models.DocumentStatus
	query := `SELECT status FROM customer_kyc_documents WHERE id = $1`
	if err := s.db.GetContext(ctx, &status, query, documentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("save kyc decision: %w", err)
	}
	return sentinel.ErrInvalidState
}
