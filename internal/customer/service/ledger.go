package service

import (
	"context"
	"errors"

	"onboarding/internal/customer/models"
	"onboarding/internal/objectstore"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/fingerprint"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/requestcontext"
)

// Ledger owns the KYC document lifecycle: upload into the object store,
// signed download URLs, and verifier decisions.
//
// Bytes reach the gateway before the ledger row is written. A gateway failure
// leaves no row; a row failure after a successful write leaves an orphaned
// object, which is logged.
type Ledger struct {
	customers CustomerChecker
	documents DocumentStore
	gateway   objectstore.Gateway
	options
}

// NewLedger constructs a Ledger.
func NewLedger(customers CustomerChecker, documents DocumentStore, gateway objectstore.Gateway, opts ...Option) *Ledger {
	return &Ledger{customers: customers, documents: documents, gateway: gateway, options: newOptions(opts)}
}

// Upload stores a new document for a customer. At most one document per type
// exists; re-uploading a type is a Conflict and never touches the gateway.
func (l *Ledger) Upload(ctx context.Context, in models.UploadInput) (*models.UploadResult, error) {
	if len(in.Content) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "file is required")
	}
	if in.Size <= 0 {
		in.Size = int64(len(in.Content))
	}

	exists, err := l.customers.Exists(ctx, in.CustomerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load customer")
	}
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
	}

	conflict := dErrors.New(dErrors.CodeConflict, string(in.DocumentType)+" document already uploaded")
	_, err = l.documents.FindByCustomerAndType(ctx, in.CustomerID, in.DocumentType)
	switch {
	case err == nil:
		return nil, conflict
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing KYC document")
	}

	now := requestcontext.Now(ctx)
	key := models.ObjectKey(in.CustomerID, in.DocumentType, now)
	hash := fingerprint.Bytes(in.Content)

	if err := l.gateway.Put(ctx, key, in.Content, in.MimeType); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store KYC document")
	}

	doc := models.NewDocument(id.NewDocumentID(), in, key, hash, now)
	if err := l.documents.Create(ctx, doc); err != nil {
		l.logWarn(ctx, "kyc object stored without ledger row",
			"customer_id", in.CustomerID.String(),
			"object_key", key,
			"error", err)
		switch {
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return nil, conflict
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "customer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record KYC document")
	}

	l.logAudit(ctx, "kyc_document_uploaded",
		"customer_id", in.CustomerID.String(),
		"document_id", doc.ID.String(),
		"document_type", string(doc.DocumentType),
		"document_hash", hash,
		"file_size", doc.FileSize)
	if l.metrics != nil {
		l.metrics.ObserveUpload(string(doc.DocumentType), doc.FileSize)
	}
	return &models.UploadResult{
		Message:    "KYC document uploaded successfully",
		DocumentID: doc.ID,
		Status:     doc.Status,
	}, nil
}

// DownloadURL issues a time-limited read URL for a stored document.
func (l *Ledger) DownloadURL(ctx context.Context, customerID id.CustomerID, docType models.DocumentType) (*models.DownloadURL, error) {
	doc, err := l.documents.FindByCustomerAndType(ctx, customerID, docType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "KYC document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load KYC document")
	}

	url, err := l.gateway.SignedReadURL(ctx, doc.ObjectKey, l.signedURLTTL)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate download URL")
	}

	l.logAudit(ctx, "kyc_document_url_issued",
		"customer_id", customerID.String(),
		"document_type", string(docType))
	return &models.DownloadURL{
		DocumentType:     doc.DocumentType,
		DownloadURL:      url,
		ExpiresInSeconds: int64(l.signedURLTTL.Seconds()),
	}, nil
}

// Decide records a verifier decision. VERIFIED is terminal; the store refuses
// to overwrite it even when two approvals race.
func (l *Ledger) Decide(ctx context.Context, in models.DecideInput) (*models.Decision, error) {
	if !in.VerifiedBy.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "verifiedBy must be ADMIN, SYSTEM, or USER")
	}

	doc, err := l.documents.FindByCustomerAndType(ctx, in.CustomerID, in.DocumentType)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "KYC document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load KYC document")
	}

	previous := doc.Status
	if err := doc.ApplyDecision(in.Status, in.VerifiedBy, requestcontext.Now(ctx)); err != nil {
		return nil, err
	}

	if err := l.documents.SaveDecision(ctx, doc); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeBadRequest, "KYC document already verified")
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "KYC document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update KYC document")
	}

	l.logAudit(ctx, "kyc_document_decided",
		"customer_id", in.CustomerID.String(),
		"document_id", doc.ID.String(),
		"document_type", string(doc.DocumentType),
		"from_status", string(previous),
		"to_status", string(doc.Status),
		"verified_by", string(in.VerifiedBy))
	if l.metrics != nil {
		l.metrics.IncrementDecision(string(doc.DocumentType), string(doc.Status))
	}
	return &models.Decision{
		Message:      models.DecisionMessage(doc.Status),
		DocumentType: doc.DocumentType,
		Status:       doc.Status,
	}, nil
}
