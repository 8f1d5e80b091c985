package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/fingerprint"
)

// KycStatus is the customer-level KYC aggregate. It is not derived from
// per-document statuses.
type KycStatus string

const (
	KycStatusPending  KycStatus = "PENDING"
	KycStatusVerified KycStatus = "VERIFIED"
	KycStatusRejected KycStatus = "REJECTED"
)

// CustomerStatus gates whether a customer is usable.
type CustomerStatus string

const (
	CustomerStatusActive  CustomerStatus = "ACTIVE"
	CustomerStatusBlocked CustomerStatus = "BLOCKED"
)

// CustomerCodePrefix marks generated Customer Identification File codes.
const CustomerCodePrefix = "CIF-"

const panMask = "****"

// Customer is the aggregate root of onboarding.
//
// Invariants:
//   - Mobile, PanHash and CustomerCode are globally unique
//   - the raw PAN is never held; only PanMasked and PanHash
//   - CustomerCode is immutable after construction
//   - Status transitions: ACTIVE -> BLOCKED and BLOCKED -> ACTIVE only
type Customer struct {
	ID           id.CustomerID  `json:"id" db:"id"`
	CustomerCode string         `json:"customerCode" db:"customer_code"`
	FirstName    string         `json:"firstName" db:"first_name"`
	MiddleName   string         `json:"middleName,omitempty" db:"middle_name"`
	LastName     string         `json:"lastName" db:"last_name"`
	Mobile       string         `json:"mobile" db:"mobile"`
	PanMasked    string         `json:"panMasked" db:"pan_masked"`
	PanHash      string         `json:"-" db:"pan_hash"`
	AadhaarLast4 string         `json:"aadhaarLast4,omitempty" db:"aadhaar_last4"`
	KycStatus    KycStatus      `json:"kycStatus" db:"kyc_status"`
	Status       CustomerStatus `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`

	KycDocuments []*Document `json:"kycDocuments,omitempty" db:"-"`
}

// RegisterInput is a boundary-validated registration request.
type RegisterInput struct {
	FirstName    string
	MiddleName   string
	LastName     string
	Mobile       string
	PanNumber    string
	AadhaarLast4 string
}

// SearchFilter selects customers by mobile and/or customer code. Set fields are ANDed.
type SearchFilter struct {
	Mobile       string
	CustomerCode string
}

// Normalize trims both filters.
func (f *SearchFilter) Normalize() {
	f.Mobile = strings.TrimSpace(f.Mobile)
	f.CustomerCode = strings.TrimSpace(f.CustomerCode)
}

// IsEmpty reports whether no filter is set.
func (f SearchFilter) IsEmpty() bool {
	return f.Mobile == "" && f.CustomerCode == ""
}

// StatusChange confirms a block or unblock.
type StatusChange struct {
	Message    string        `json:"message"`
	CustomerID id.CustomerID `json:"customerId"`
}

// NewCustomer builds a PENDING, ACTIVE customer from validated input. The PAN is
// consumed here: only its mask and fingerprint leave this function.
func NewCustomer(customerID id.CustomerID, in RegisterInput, now time.Time) (*Customer, error) {
	pan := fingerprint.NormalizePAN(in.PanNumber)
	if len(pan) != 10 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "PAN must be 10 characters")
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "first and last name are required")
	}
	if strings.TrimSpace(in.Mobile) == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "mobile is required")
	}
	return &Customer{
		ID:           customerID,
		CustomerCode: NewCustomerCode(),
		FirstName:    strings.TrimSpace(in.FirstName),
		MiddleName:   strings.TrimSpace(in.MiddleName),
		LastName:     strings.TrimSpace(in.LastName),
		Mobile:       strings.TrimSpace(in.Mobile),
		PanMasked:    MaskPAN(pan),
		PanHash:      fingerprint.PAN(pan),
		AadhaarLast4: strings.TrimSpace(in.AadhaarLast4),
		KycStatus:    KycStatusPending,
		Status:       CustomerStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NewCustomerCode returns a fresh "CIF-<uuid>" code.
func NewCustomerCode() string {
	return CustomerCodePrefix + uuid.NewString()
}

// MaskPAN keeps the first five and the last character and replaces the middle
// with a fixed four-character mask. Inputs shorter than six characters are
// masked entirely.
func MaskPAN(pan string) string {
	if len(pan) < 6 {
		return panMask
	}
	return pan[:5] + panMask + pan[len(pan)-1:]
}
