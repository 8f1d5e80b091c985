package handler

import (
	"strings"

	"onboarding/internal/customer/models"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

// RegisterCustomerRequest is the body of POST /v1/customer.
type RegisterCustomerRequest struct {
	FirstName    string `json:"firstName" validate:"required,max=100"`
	MiddleName   string `json:"middleName" validate:"max=100"`
	LastName     string `json:"lastName" validate:"required,max=100"`
	Mobile       string `json:"mobile" validate:"required,in_mobile"`
	PanNumber    string `json:"panNumber" validate:"required,pan"`
	AadhaarLast4 string `json:"aadhaarLast4" validate:"omitempty,len=4,numeric"`
}

// Validate normalizes and validates the request.
func (r *RegisterCustomerRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.MiddleName = strings.TrimSpace(r.MiddleName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Mobile = NormalizeMobile(r.Mobile)
	r.PanNumber = strings.TrimSpace(r.PanNumber)
	r.AadhaarLast4 = strings.TrimSpace(r.AadhaarLast4)
	return validateStruct(r)
}

func (r *RegisterCustomerRequest) ToInput() models.RegisterInput {
	return models.RegisterInput{
		FirstName:    r.FirstName,
		MiddleName:   r.MiddleName,
		LastName:     r.LastName,
		Mobile:       r.Mobile,
		PanNumber:    r.PanNumber,
		AadhaarLast4: r.AadhaarLast4,
	}
}

// CreateAddressRequest is the body of POST /v1/customer/address.
type CreateAddressRequest struct {
	CustomerID  string `json:"customerId" validate:"required,uuid"`
	AddressType string `json:"addressType" validate:"required,oneof=PERMANENT CURRENT OFFICE"`
	Line1       string `json:"line1" validate:"required,max=255"`
	Line2       string `json:"line2" validate:"max=255"`
	City        string `json:"city" validate:"required,max=100"`
	State       string `json:"state" validate:"required,max=100"`
	Country     string `json:"country" validate:"required,max=100"`
	Pincode     string `json:"pincode" validate:"required,pincode"`

	parsedCustomerID id.CustomerID
}

// Validate normalizes and validates the request.
func (r *CreateAddressRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.CustomerID = strings.TrimSpace(r.CustomerID)
	r.AddressType = strings.ToUpper(strings.TrimSpace(r.AddressType))
	r.Line1 = strings.TrimSpace(r.Line1)
	r.Line2 = strings.TrimSpace(r.Line2)
	r.City = strings.TrimSpace(r.City)
	r.State = strings.TrimSpace(r.State)
	r.Country = strings.TrimSpace(r.Country)
	r.Pincode = strings.TrimSpace(r.Pincode)
	if err := validateStruct(r); err != nil {
		return err
	}
	customerID, err := id.ParseCustomerID(r.CustomerID)
	if err != nil {
		return dErrors.New(dErrors.CodeBadRequest, "customerId must be a valid UUID")
	}
	r.parsedCustomerID = customerID
	return nil
}

func (r *CreateAddressRequest) ToInput() models.CreateAddressInput {
	return models.CreateAddressInput{
		CustomerID:  r.parsedCustomerID,
		AddressType: models.AddressType(r.AddressType),
		Line1:       r.Line1,
		Line2:       r.Line2,
		City:        r.City,
		State:       r.State,
		Country:     r.Country,
		Pincode:     r.Pincode,
	}
}

// UpdateKycStatusRequest is the body of PUT /v1/customer/{id}/kyc/{documentType}/status.
type UpdateKycStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=VERIFIED REJECTED"`
}

// Validate normalizes and validates the request.
func (r *UpdateKycStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	return validateStruct(r)
}
