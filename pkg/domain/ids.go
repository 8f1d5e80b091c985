// Package domain holds typed identifiers and small domain primitives shared
// across modules. Parsing happens once at the trust boundary; everything past
// the handler works with typed values.
package domain

import (
	"database/sql/driver"
	"strings"

	"github.com/google/uuid"

	dErrors "onboarding/pkg/domain-errors"
)

// CustomerID identifies a registered customer.
type CustomerID uuid.UUID

// AddressID identifies a customer address row.
type AddressID uuid.UUID

// DocumentID identifies a KYC document ledger row.
type DocumentID uuid.UUID

func (id CustomerID) String() string { return uuid.UUID(id).String() }
func (id CustomerID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id AddressID) String() string { return uuid.UUID(id).String() }
func (id AddressID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id DocumentID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs render as plain UUID strings in JSON.
func (id CustomerID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id AddressID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id DocumentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText accepts the same UUID text MarshalText produces.
func (id *CustomerID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AddressID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DocumentID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

// Value and Scan let typed IDs travel through database/sql as UUID columns.
func (id CustomerID) Value() (driver.Value, error) { return id.String(), nil }
func (id AddressID) Value() (driver.Value, error)  { return id.String(), nil }
func (id DocumentID) Value() (driver.Value, error) { return id.String(), nil }

func (id *CustomerID) Scan(src any) error { return scanUUID((*uuid.UUID)(id), src) }
func (id *AddressID) Scan(src any) error  { return scanUUID((*uuid.UUID)(id), src) }
func (id *DocumentID) Scan(src any) error { return scanUUID((*uuid.UUID)(id), src) }

func scanUUID(dst *uuid.UUID, src any) error {
	return dst.Scan(src)
}

// NewCustomerID returns a fresh random customer ID.
func NewCustomerID() CustomerID { return CustomerID(uuid.New()) }

// NewAddressID returns a fresh random address ID.
func NewAddressID() AddressID { return AddressID(uuid.New()) }

// NewDocumentID returns a fresh random document ID.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// ParseCustomerID parses a customer ID from untrusted input.
func ParseCustomerID(s string) (CustomerID, error) {
	u, err := parseUUID(s, "customer id")
	if err != nil {
		return CustomerID{}, err
	}
	return CustomerID(u), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
