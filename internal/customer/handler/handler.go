// Package handler exposes customer onboarding over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"onboarding/internal/customer/models"
	rlmodels "onboarding/internal/ratelimit/models"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/httputil"
	"onboarding/pkg/platform/middleware/version"
	"onboarding/pkg/requestcontext"
)

// Service defines the onboarding operations served over HTTP.
type Service interface {
	RegisterCustomer(ctx context.Context, in models.RegisterInput) (*models.Customer, error)
	GetCustomer(ctx context.Context, customerID id.CustomerID) (*models.Customer, error)
	SearchCustomers(ctx context.Context, filter models.SearchFilter) ([]*models.Customer, error)
	BlockCustomer(ctx context.Context, customerID id.CustomerID) (*models.StatusChange, error)
	UnblockCustomer(ctx context.Context, customerID id.CustomerID) (*models.StatusChange, error)
	CreateAddress(ctx context.Context, in models.CreateAddressInput) (*models.Address, error)
	ListAddresses(ctx context.Context, customerID id.CustomerID) ([]*models.Address, error)
	UploadKycDocument(ctx context.Context, in models.UploadInput) (*models.UploadResult, error)
	KycDownloadURL(ctx context.Context, customerID id.CustomerID, docType models.DocumentType) (*models.DownloadURL, error)
	DecideKycDocument(ctx context.Context, in models.DecideInput) (*models.Decision, error)
}

// RateLimiter returns the middleware enforcing an endpoint class budget.
type RateLimiter interface {
	RateLimit(class rlmodels.EndpointClass) func(http.Handler) http.Handler
}

// Handler wires onboarding endpoints to the service.
type Handler struct {
	service        Service
	logger         *slog.Logger
	limiter        RateLimiter
	maxUploadBytes int64
	allowedMIME    []string
}

type Option func(*Handler)

// WithRateLimiter applies per-class request budgets to the routes.
func WithRateLimiter(l RateLimiter) Option {
	return func(h *Handler) {
		h.limiter = l
	}
}

// WithMaxUploadBytes caps KYC upload size.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithAllowedMIMETypes replaces the accepted upload formats.
func WithAllowedMIMETypes(types []string) Option {
	return func(h *Handler) {
		if len(types) > 0 {
			h.allowedMIME = types
		}
	}
}

// New constructs an onboarding handler.
func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:        service,
		logger:         logger,
		maxUploadBytes: DefaultMaxUploadBytes,
		allowedMIME:    AllowedMIMETypes,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Register mounts the onboarding endpoints on the router under /v1.
func (h *Handler) Register(r chi.Router) {
	read := h.limit(rlmodels.ClassRead)
	write := h.limit(rlmodels.ClassWrite)
	upload := h.limit(rlmodels.ClassUpload)

	r.Route(id.APIVersionV1.Prefix()+"/customer", func(r chi.Router) {
		r.Use(version.ExtractVersion(id.APIVersionV1))
		r.With(write).Post("/", h.HandleRegister)
		r.With(read).Get("/", h.HandleSearch)
		r.With(write).Post("/address", h.HandleCreateAddress)
		r.With(read).Get("/{id}", h.HandleGet)
		r.With(write).Put("/{id}/block", h.HandleBlock)
		r.With(write).Put("/{id}/unblock", h.HandleUnblock)
		r.With(read).Get("/{id}/address", h.HandleListAddresses)
		r.With(upload).Post("/{id}/kyc", h.HandleUploadKyc)
		r.With(read).Get("/{id}/kyc/{documentType}/download", h.HandleKycDownload)
		r.With(write).Put("/{id}/kyc/{documentType}/status", h.HandleDecideKyc)
	})
}

func (h *Handler) limit(class rlmodels.EndpointClass) func(http.Handler) http.Handler {
	if h.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.limiter.RateLimit(class)
}

// HandleRegister handles POST /v1/customer.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterCustomerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	customer, err := h.service.RegisterCustomer(ctx, req.ToInput())
	if err != nil {
		h.fail(ctx, w, "failed to register customer", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, customer)
}

// HandleGet handles GET /v1/customer/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, err := parseCustomerID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	customer, err := h.service.GetCustomer(ctx, customerID)
	if err != nil {
		h.fail(ctx, w, "failed to get customer", err, "customer_id", customerID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customer)
}

// HandleSearch handles GET /v1/customer?mobile=&customerCode=.
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := models.SearchFilter{
		Mobile:       NormalizeMobile(q.Get("mobile")),
		CustomerCode: q.Get("customerCode"),
	}

	customers, err := h.service.SearchCustomers(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to search customers", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, customers)
}

// HandleBlock handles PUT /v1/customer/{id}/block.
func (h *Handler) HandleBlock(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "failed to block customer", h.service.BlockCustomer)
}

// HandleUnblock handles PUT /v1/customer/{id}/unblock.
func (h *Handler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	h.changeStatus(w, r, "failed to unblock customer", h.service.UnblockCustomer)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request, failure string,
	change func(context.Context, id.CustomerID) (*models.StatusChange, error),
) {
	ctx := r.Context()
	customerID, err := parseCustomerID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := change(ctx, customerID)
	if err != nil {
		h.fail(ctx, w, failure, err, "customer_id", customerID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleCreateAddress handles POST /v1/customer/address.
func (h *Handler) HandleCreateAddress(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateAddressRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	address, err := h.service.CreateAddress(ctx, req.ToInput())
	if err != nil {
		h.fail(ctx, w, "failed to create address", err, "customer_id", req.CustomerID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, address)
}

// HandleListAddresses handles GET /v1/customer/{id}/address.
func (h *Handler) HandleListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, err := parseCustomerID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	addresses, err := h.service.ListAddresses(ctx, customerID)
	if err != nil {
		h.fail(ctx, w, "failed to list addresses", err, "customer_id", customerID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, addresses)
}

// HandleUploadKyc handles multipart POST /v1/customer/{id}/kyc.
func (h *Handler) HandleUploadKyc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, err := parseCustomerID(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	in, err := h.readUpload(w, r, customerID)
	if err != nil {
		h.logger.WarnContext(ctx, "rejected KYC upload",
			"request_id", requestcontext.RequestID(ctx),
			"customer_id", customerID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.UploadKycDocument(ctx, in)
	if err != nil {
		h.fail(ctx, w, "failed to upload KYC document", err, "customer_id", customerID)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

// HandleKycDownload handles GET /v1/customer/{id}/kyc/{documentType}/download.
func (h *Handler) HandleKycDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	customerID, docType, err := parseDocumentPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	res, err := h.service.KycDownloadURL(ctx, customerID, docType)
	if err != nil {
		h.fail(ctx, w, "failed to issue KYC download URL", err, "customer_id", customerID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// HandleDecideKyc handles PUT /v1/customer/{id}/kyc/{documentType}/status.
// Decisions made over this route are recorded as ADMIN.
func (h *Handler) HandleDecideKyc(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	customerID, docType, err := parseDocumentPath(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[UpdateKycStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.service.DecideKycDocument(ctx, models.DecideInput{
		CustomerID:   customerID,
		DocumentType: docType,
		Status:       models.DocumentStatus(req.Status),
		VerifiedBy:   models.VerifierAdmin,
	})
	if err != nil {
		h.fail(ctx, w, "failed to decide KYC document", err, "customer_id", customerID)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

// fail logs err and renders it. Internal failures log at error level.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error, attrs ...any) {
	attrs = append(attrs, "request_id", requestcontext.RequestID(ctx), "error", err)
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, msg, attrs...)
	} else {
		h.logger.WarnContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func parseCustomerID(r *http.Request) (id.CustomerID, error) {
	customerID, err := id.ParseCustomerID(chi.URLParam(r, "id"))
	if err != nil {
		return id.CustomerID{}, dErrors.New(dErrors.CodeBadRequest, "customer id must be a valid UUID")
	}
	return customerID, nil
}

func parseDocumentPath(r *http.Request) (id.CustomerID, models.DocumentType, error) {
	customerID, err := parseCustomerID(r)
	if err != nil {
		return id.CustomerID{}, "", err
	}
	docType, err := models.ParseDocumentType(chi.URLParam(r, "documentType"))
	if err != nil {
		return id.CustomerID{}, "", err
	}
	return customerID, docType, nil
}
