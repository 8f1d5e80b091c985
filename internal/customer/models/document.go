package models

import (
	"fmt"
	"strings"
	"time"

	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

// DocumentType is the canonical set of KYC document kinds. At most one
// document of each type exists per customer.
type DocumentType string

const (
	DocumentTypePAN          DocumentType = "PAN"
	DocumentTypeAadhaar      DocumentType = "AADHAAR"
	DocumentTypeAddressProof DocumentType = "ADDRESS_PROOF"
)

// DocumentTypes lists the accepted document types in display order.
var DocumentTypes = []DocumentType{DocumentTypePAN, DocumentTypeAadhaar, DocumentTypeAddressProof}

// ParseDocumentType validates a document type string, case-insensitively.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range DocumentTypes {
		if t == known {
			return t, nil
		}
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "documentType must be PAN, AADHAAR, or ADDRESS_PROOF")
}

// DocumentStatus is the KYC document lifecycle state.
//
//	(absent) --upload--> UPLOADED --approve--> VERIFIED (terminal)
//	UPLOADED|REJECTED --reject--> REJECTED
//	REJECTED --approve--> VERIFIED
type DocumentStatus string

const (
	DocumentStatusUploaded DocumentStatus = "UPLOADED"
	DocumentStatusVerified DocumentStatus = "VERIFIED"
	DocumentStatusRejected DocumentStatus = "REJECTED"
)

// ParseDecisionStatus accepts only the statuses a verifier may set.
func ParseDecisionStatus(s string) (DocumentStatus, error) {
	switch st := DocumentStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case DocumentStatusVerified, DocumentStatusRejected:
		return st, nil
	}
	return "", dErrors.New(dErrors.CodeBadRequest, "status must be VERIFIED or REJECTED")
}

// Verifier records who made a KYC decision.
type Verifier string

const (
	VerifierAdmin  Verifier = "ADMIN"
	VerifierSystem Verifier = "SYSTEM"
	VerifierUser   Verifier = "USER"
)

func (v Verifier) IsValid() bool {
	switch v {
	case VerifierAdmin, VerifierSystem, VerifierUser:
		return true
	}
	return false
}

// Document is one row of the KYC ledger.
//
// Invariants:
//   - (CustomerID, DocumentType) is unique
//   - ObjectKey and DocumentHash are immutable after insert
//   - VerifiedAt and VerifiedBy are set together, only by a decision
//   - VERIFIED is terminal
type Document struct {
	ID           id.DocumentID  `json:"id" db:"id"`
	CustomerID   id.CustomerID  `json:"customerId" db:"customer_id"`
	DocumentType DocumentType   `json:"documentType" db:"document_type"`
	ObjectKey    string         `json:"objectKey" db:"object_key"`
	DocumentHash string         `json:"documentHash" db:"document_hash"`
	MimeType     string         `json:"mimeType" db:"mime_type"`
	FileSize     int64          `json:"fileSize" db:"file_size"`
	Status       DocumentStatus `json:"status" db:"status"`
	VerifiedAt   *time.Time     `json:"verifiedAt,omitempty" db:"verified_at"`
	VerifiedBy   *Verifier      `json:"verifiedBy,omitempty" db:"verified_by"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

// UploadInput carries an admitted upload. Size and MIME admission happen at the boundary.
type UploadInput struct {
	CustomerID   id.CustomerID
	DocumentType DocumentType
	Content      []byte
	MimeType     string
	Size         int64
}

// UploadResult confirms a stored document.
type UploadResult struct {
	Message    string         `json:"message"`
	DocumentID id.DocumentID  `json:"documentId"`
	Status     DocumentStatus `json:"status"`
}

// DownloadURL is a time-limited read URL for a stored document.
type DownloadURL struct {
	DocumentType     DocumentType `json:"documentType"`
	DownloadURL      string       `json:"downloadUrl"`
	ExpiresInSeconds int64        `json:"expiresInSeconds"`
}

// DecideInput is a verifier decision on a document.
type DecideInput struct {
	CustomerID   id.CustomerID
	DocumentType DocumentType
	Status       DocumentStatus
	VerifiedBy   Verifier
}

// Decision confirms a recorded verifier decision.
type Decision struct {
	Message      string         `json:"message"`
	DocumentType DocumentType   `json:"documentType"`
	Status       DocumentStatus `json:"status"`
}

// ObjectKey builds the storage key for a document upload:
// kyc/<customerId>/<TYPE>-<unixMillis>.
func ObjectKey(customerID id.CustomerID, docType DocumentType, at time.Time) string {
	return fmt.Sprintf("kyc/%s/%s-%d", customerID, docType, at.UnixMilli())
}

// NewDocument builds an UPLOADED ledger row.
func NewDocument(documentID id.DocumentID, in UploadInput, objectKey, hash string, now time.Time) *Document {
	return &Document{
		ID:           documentID,
		CustomerID:   in.CustomerID,
		DocumentType: in.DocumentType,
		ObjectKey:    objectKey,
		DocumentHash: hash,
		MimeType:     in.MimeType,
		FileSize:     in.Size,
		Status:       DocumentStatusUploaded,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (d *Document) IsVerified() bool {
	return d.Status == DocumentStatusVerified
}

// CanDecide reports whether a verifier decision may be applied.
func (d *Document) CanDecide(status DocumentStatus) error {
	if d.IsVerified() {
		return dErrors.New(dErrors.CodeBadRequest, "KYC document already verified")
	}
	if status != DocumentStatusVerified && status != DocumentStatusRejected {
		return dErrors.New(dErrors.CodeBadRequest, "status must be VERIFIED or REJECTED")
	}
	return nil
}

// ApplyDecision moves the document to status and stamps the verifier.
func (d *Document) ApplyDecision(status DocumentStatus, by Verifier, at time.Time) error {
	if err := d.CanDecide(status); err != nil {
		return err
	}
	d.Status = status
	d.VerifiedAt = &at
	d.VerifiedBy = &by
	d.UpdatedAt = at
	return nil
}

// DecisionMessage is the confirmation text for a recorded decision.
func DecisionMessage(status DocumentStatus) string {
	return "KYC document " + strings.ToLower(string(status)) + " successfully"
}
