package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for customer onboarding.
// Tracks registrations, KYC ledger transitions and per-operation latency.
type Metrics struct {
	OperationDuration   *prometheus.HistogramVec
	CustomersRegistered prometheus.Counter
	CustomerStatus      *prometheus.CounterVec
	AddressesCreated    prometheus.Counter
	DocumentsUploaded   *prometheus.CounterVec
	DocumentDecisions   *prometheus.CounterVec
	UploadBytes         prometheus.Histogram
}

// New creates the onboarding metrics and registers them against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "onboarding_operation_duration_seconds",
			Help:    "Duration of onboarding service operations by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation", "outcome"}),
		CustomersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_customers_registered_total",
			Help: "Total number of customers registered",
		}),
		CustomerStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_customer_status_changes_total",
			Help: "Customer block and unblock transitions",
		}, []string{"status"}),
		AddressesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "onboarding_addresses_created_total",
			Help: "Total number of customer addresses created",
		}),
		DocumentsUploaded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_kyc_documents_uploaded_total",
			Help: "KYC documents accepted into the ledger by type",
		}, []string{"document_type"}),
		DocumentDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "onboarding_kyc_document_decisions_total",
			Help: "Verifier decisions recorded on KYC documents",
		}, []string{"document_type", "status"}),
		UploadBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "onboarding_kyc_upload_bytes",
			Help:    "Size of accepted KYC document uploads",
			Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10),
		}),
	}
}

// ObserveOperation records the duration of one façade call.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation, outcome string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementCustomersRegistered() {
	m.CustomersRegistered.Inc()
}

func (m *Metrics) IncrementCustomerStatus(status string) {
	m.CustomerStatus.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrementAddressesCreated() {
	m.AddressesCreated.Inc()
}

// ObserveUpload records an accepted upload.
func (m *Metrics) ObserveUpload(documentType string, size int64) {
	m.DocumentsUploaded.WithLabelValues(documentType).Inc()
	m.UploadBytes.Observe(float64(size))
}

func (m *Metrics) IncrementDecision(documentType, status string) {
	m.DocumentDecisions.WithLabelValues(documentType, status).Inc()
}
