package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/gabriel-vasile/mimetype"

	"onboarding/internal/customer/models"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

// DefaultMaxUploadBytes caps a single KYC document.
const DefaultMaxUploadBytes int64 = 5 << 20

// multipartOverhead leaves room for boundaries and the documentType field.
const multipartOverhead int64 = 64 << 10

// AllowedMIMETypes are the default document formats accepted for KYC uploads.
var AllowedMIMETypes = []string{"application/pdf", "image/jpeg", "image/png"}

// readUpload admits a multipart KYC upload. The declared part type and the
// type sniffed from the content must both be allowed.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request, customerID id.CustomerID) (models.UploadInput, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.UploadInput{}, h.tooLarge()
		}
		return models.UploadInput{}, dErrors.New(dErrors.CodeBadRequest, "invalid multipart form")
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	docType, err := models.ParseDocumentType(r.FormValue("documentType"))
	if err != nil {
		return models.UploadInput{}, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return models.UploadInput{}, dErrors.New(dErrors.CodeBadRequest, "file is required")
		}
		return models.UploadInput{}, dErrors.New(dErrors.CodeBadRequest, "invalid file upload")
	}
	defer file.Close()

	if header.Size > h.maxUploadBytes {
		return models.UploadInput{}, h.tooLarge()
	}
	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return models.UploadInput{}, dErrors.New(dErrors.CodeBadRequest, "invalid file upload")
	}
	if int64(len(content)) > h.maxUploadBytes {
		return models.UploadInput{}, h.tooLarge()
	}
	if len(content) == 0 {
		return models.UploadInput{}, dErrors.New(dErrors.CodeBadRequest, "file is required")
	}

	declared, _, err := mime.ParseMediaType(header.Header.Get("Content-Type"))
	if err != nil || !mimetype.EqualsAny(declared, h.allowedMIME...) {
		return models.UploadInput{}, dErrors.New(dErrors.CodeBadRequest, "only PDF, JPEG, or PNG files are allowed")
	}
	sniffed := mimetype.Detect(content)
	if !mimetype.EqualsAny(sniffed.String(), h.allowedMIME...) {
		return models.UploadInput{}, dErrors.New(dErrors.CodeBadRequest, "file content is not a PDF, JPEG, or PNG document")
	}

	return models.UploadInput{
		CustomerID:   customerID,
		DocumentType: docType,
		Content:      content,
		MimeType:     sniffed.String(),
		Size:         int64(len(content)),
	}, nil
}

func (h *Handler) tooLarge() error {
	return dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("file exceeds the maximum size of %d bytes", h.maxUploadBytes))
}
