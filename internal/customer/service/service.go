package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"onboarding/internal/customer/models"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
)

// Service is the single entry point the transport layer talks to. It composes
// the registry, address book and ledger, and wraps every operation in a span
// and a latency observation.
type Service struct {
	registry *Registry
	book     *AddressBook
	ledger   *Ledger
	options
}

// New constructs a Service from explicitly built components.
func New(registry *Registry, book *AddressBook, ledger *Ledger, opts ...Option) *Service {
	return &Service{registry: registry, book: book, ledger: ledger, options: newOptions(opts)}
}

func (s *Service) RegisterCustomer(ctx context.Context, in models.RegisterInput) (c *models.Customer, err error) {
	ctx, done := s.observe(ctx, "register_customer")
	defer func() { done(err) }()
	return s.registry.Register(ctx, in)
}

func (s *Service) GetCustomer(ctx context.Context, customerID id.CustomerID) (c *models.Customer, err error) {
	ctx, done := s.observe(ctx, "get_customer", attribute.String("customer.id", customerID.String()))
	defer func() { done(err) }()
	return s.registry.GetByID(ctx, customerID)
}

func (s *Service) SearchCustomers(ctx context.Context, filter models.SearchFilter) (out []*models.Customer, err error) {
	ctx, done := s.observe(ctx, "search_customers")
	defer func() { done(err) }()
	return s.registry.Search(ctx, filter)
}

func (s *Service) BlockCustomer(ctx context.Context, customerID id.CustomerID) (res *models.StatusChange, err error) {
	ctx, done := s.observe(ctx, "block_customer", attribute.String("customer.id", customerID.String()))
	defer func() { done(err) }()
	return s.registry.Block(ctx, customerID)
}

func (s *Service) UnblockCustomer(ctx context.Context, customerID id.CustomerID) (res *models.StatusChange, err error) {
	ctx, done := s.observe(ctx, "unblock_customer", attribute.String("customer.id", customerID.String()))
	defer func() { done(err) }()
	return s.registry.Unblock(ctx, customerID)
}

func (s *Service) CreateAddress(ctx context.Context, in models.CreateAddressInput) (a *models.Address, err error) {
	ctx, done := s.observe(ctx, "create_address",
		attribute.String("customer.id", in.CustomerID.String()),
		attribute.String("address.type", string(in.AddressType)))
	defer func() { done(err) }()
	return s.book.Create(ctx, in)
}

func (s *Service) ListAddresses(ctx context.Context, customerID id.CustomerID) (out []*models.Address, err error) {
	ctx, done := s.observe(ctx, "list_addresses", attribute.String("customer.id", customerID.String()))
	defer func() { done(err) }()
	return s.book.ListByCustomer(ctx, customerID)
}

func (s *Service) UploadKycDocument(ctx context.Context, in models.UploadInput) (res *models.UploadResult, err error) {
	ctx, done := s.observe(ctx, "upload_kyc_document",
		attribute.String("customer.id", in.CustomerID.String()),
		attribute.String("document.type", string(in.DocumentType)),
		attribute.Int64("document.size", in.Size))
	defer func() { done(err) }()
	return s.ledger.Upload(ctx, in)
}

func (s *Service) KycDownloadURL(ctx context.Context, customerID id.CustomerID, docType models.DocumentType) (res *models.DownloadURL, err error) {
	ctx, done := s.observe(ctx, "kyc_download_url",
		attribute.String("customer.id", customerID.String()),
		attribute.String("document.type", string(docType)))
	defer func() { done(err) }()
	return s.ledger.DownloadURL(ctx, customerID, docType)
}

func (s *Service) DecideKycDocument(ctx context.Context, in models.DecideInput) (res *models.Decision, err error) {
	ctx, done := s.observe(ctx, "decide_kyc_document",
		attribute.String("customer.id", in.CustomerID.String()),
		attribute.String("document.type", string(in.DocumentType)),
		attribute.String("document.status", string(in.Status)))
	defer func() { done(err) }()
	return s.ledger.Decide(ctx, in)
}

// observe opens a span for operation and returns a completion func that
// records the outcome on the span and the latency histogram.
func (s *Service) observe(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "customer."+operation, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = string(dErrors.CodeOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, dErrors.MessageOf(err))
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(operation, outcome, start)
		}
	}
}
