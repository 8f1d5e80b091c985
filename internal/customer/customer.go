// Package customer assembles the onboarding module: customer registry,
// address book and KYC document ledger behind one service and HTTP handler.
package customer

import (
	"log/slog"

	"onboarding/internal/customer/handler"
	"onboarding/internal/customer/service"
	"onboarding/internal/objectstore"
)

// Service exposes onboarding orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the onboarding service.
type Handler = handler.Handler

// Stores groups the persistence the module needs.
type Stores struct {
	Customers service.CustomerStore
	Addresses service.AddressStore
	Documents service.DocumentStore
}

// NewService constructs the registry, address book and ledger over stores and
// composes them. opts apply to every component.
func NewService(stores Stores, gateway objectstore.Gateway, opts ...service.Option) *Service {
	return service.New(
		service.NewRegistry(stores.Customers, stores.Documents, opts...),
		service.NewAddressBook(stores.Customers, stores.Addresses, opts...),
		service.NewLedger(stores.Customers, stores.Documents, gateway, opts...),
		opts...,
	)
}

// NewHandler constructs the HTTP handler for the /v1/customer routes.
func NewHandler(s *Service, logger *slog.Logger, opts ...handler.Option) *Handler {
	return handler.New(s, logger, opts...)
}
