package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	dup := &pgconn.PgError{Code: UniqueViolation, ConstraintName: "customers_mobile_key"}

	t.Run("matches unique violation through wrapping", func(t *testing.T) {
		err := fmt.Errorf("insert customer: %w", dup)
		assert.True(t, IsUniqueViolation(err, ""))
		assert.True(t, IsUniqueViolation(err, "customers_mobile_key"))
		assert.False(t, IsUniqueViolation(err, "customers_pan_hash_key"))
	})

	t.Run("ignores other codes and plain errors", func(t *testing.T) {
		assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: ForeignKeyViolation}, ""))
		assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: ForeignKeyViolation}))
		assert.False(t, IsUniqueViolation(errors.New("duplicate key"), ""))
	})

	t.Run("schema is embedded", func(t *testing.T) {
		assert.Contains(t, schema, "customer_kyc_documents_customer_type_key")
	})
}
