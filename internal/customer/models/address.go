package models

import (
	"regexp"
	"strings"
	"time"

	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

// AddressType distinguishes the one address a customer may hold per kind.
type AddressType string

const (
	AddressTypePermanent AddressType = "PERMANENT"
	AddressTypeCurrent   AddressType = "CURRENT"
	AddressTypeOffice    AddressType = "OFFICE"
)

// PincodePattern is a six digit Indian PIN code with a nonzero first digit.
var PincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// ParseAddressType validates an address type string.
func ParseAddressType(s string) (AddressType, error) {
	switch t := AddressType(strings.ToUpper(strings.TrimSpace(s))); t {
	case AddressTypePermanent, AddressTypeCurrent, AddressTypeOffice:
		return t, nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "addressType must be PERMANENT, CURRENT, or OFFICE")
}

// Address is owned by exactly one customer; at most one per (customer, type).
type Address struct {
	ID          id.AddressID  `json:"id" db:"id"`
	CustomerID  id.CustomerID `json:"customerId" db:"customer_id"`
	AddressType AddressType   `json:"addressType" db:"address_type"`
	Line1       string        `json:"line1" db:"line1"`
	Line2       string        `json:"line2,omitempty" db:"line2"`
	City        string        `json:"city" db:"city"`
	State       string        `json:"state" db:"state"`
	Country     string        `json:"country" db:"country"`
	Pincode     string        `json:"pincode" db:"pincode"`
	IsActive    bool          `json:"isActive" db:"is_active"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`
}

// CreateAddressInput is a boundary-validated address creation request.
type CreateAddressInput struct {
	CustomerID  id.CustomerID
	AddressType AddressType
	Line1       string
	Line2       string
	City        string
	State       string
	Country     string
	Pincode     string
}

// NewAddress builds an active address, re-asserting the invariants that must
// hold before persistence regardless of boundary validation.
func NewAddress(addressID id.AddressID, in CreateAddressInput, now time.Time) (*Address, error) {
	if _, err := ParseAddressType(string(in.AddressType)); err != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown address type")
	}
	if strings.TrimSpace(in.Line1) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "line1 is required")
	}
	pincode := strings.TrimSpace(in.Pincode)
	if !PincodePattern.MatchString(pincode) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "pincode must be a valid 6-digit PIN code")
	}
	return &Address{
		ID:          addressID,
		CustomerID:  in.CustomerID,
		AddressType: in.AddressType,
		Line1:       strings.TrimSpace(in.Line1),
		Line2:       strings.TrimSpace(in.Line2),
		City:        strings.TrimSpace(in.City),
		State:       strings.TrimSpace(in.State),
		Country:     strings.TrimSpace(in.Country),
		Pincode:     pincode,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
