package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"onboarding/internal/customer/metrics"
	"onboarding/internal/customer/models"
	"onboarding/internal/customer/service"
	addressstore "onboarding/internal/customer/store/address"
	customerstore "onboarding/internal/customer/store/customer"
	documentstore "onboarding/internal/customer/store/document"
	"onboarding/internal/objectstore"
	"onboarding/internal/ratelimit/middleware"
	rlmodels "onboarding/internal/ratelimit/models"
	"onboarding/internal/ratelimit/store/bucket"
	"onboarding/pkg/testutil"
)

var decidedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

var (
	pdfContent = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")
	pngContent = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
)

type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	gateway *objectstore.InMemory
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.router, s.gateway = newRouter(s.T(), WithMaxUploadBytes(1024))
}

func newRouter(t *testing.T, opts ...Option) (http.Handler, *objectstore.InMemory) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	customers := customerstore.NewInMemory()
	addresses := addressstore.NewInMemory()
	documents := documentstore.NewInMemory()
	gateway := objectstore.NewInMemory("kyc-test")
	svcOpts := []service.Option{
		service.WithLogger(logger),
		service.WithMetrics(metrics.New(prometheus.NewRegistry())),
	}
	svc := service.New(
		service.NewRegistry(customers, documents, svcOpts...),
		service.NewAddressBook(customers, addresses, svcOpts...),
		service.NewLedger(customers, documents, gateway, svcOpts...),
		svcOpts...,
	)

	r := chi.NewRouter()
	New(svc, logger, opts...).Register(r)
	return r, gateway
}

func registerBody(mobile, pan string) map[string]string {
	return map[string]string{
		"firstName": "Shahid",
		"lastName":  "Mangole",
		"mobile":    mobile,
		"panNumber": pan,
	}
}

func (s *HandlerSuite) register(mobile, pan string) *models.Customer {
	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/customer", registerBody(mobile, pan)))
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	return testutil.UnmarshalResponse[models.Customer](s.T(), rr)
}

func (s *HandlerSuite) upload(customerID, docType string, file testutil.MultipartFile) *http.Request {
	return testutil.NewMultipartRequest(s.T(), http.MethodPost, "/v1/customer/"+customerID+"/kyc",
		map[string]string{"documentType": docType}, file)
}

func pdfFile() testutil.MultipartFile {
	return testutil.MultipartFile{Field: "file", Filename: "pan.pdf", ContentType: "application/pdf", Content: pdfContent}
}

func (s *HandlerSuite) TestRegisterCustomer() {
	s.Run("created with masked PAN and generated code", func() {
		c := s.register("+917748796854", "ABCDE1234F")
		s.Equal("7748796854", c.Mobile)
		s.Equal("ABCDE****F", c.PanMasked)
		s.True(strings.HasPrefix(c.CustomerCode, models.CustomerCodePrefix))
		s.Equal(models.KycStatusPending, c.KycStatus)
		s.Equal(models.CustomerStatusActive, c.Status)
	})

	s.Run("raw PAN and hash never rendered", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/customer", registerBody("9876543210", "PQRSX6789Z")))
		s.Require().Equal(http.StatusCreated, rr.Code)
		body := rr.Body.String()
		s.NotContains(body, "PQRSX6789Z")
		s.NotContains(body, "panHash")
	})

	s.Run("duplicate mobile conflicts", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/customer", registerBody("07748796854", "ZZZZZ9999Z")))
		testutil.AssertErrorBody(s.T(), rr, http.StatusConflict, "conflict")
	})

	cases := []struct {
		name    string
		body    map[string]string
		message string
	}{
		{"invalid PAN", registerBody("9123456789", "abcde1234f"), "Invalid PAN format"},
		{"invalid mobile", registerBody("5123456789", "ABCDE1234F"), "Invalid Indian mobile number"},
		{"missing first name", map[string]string{"lastName": "R", "mobile": "9123456789", "panNumber": "ABCDE1234F"}, "firstName is required"},
		{"aadhaar not four digits", map[string]string{"firstName": "A", "lastName": "R", "mobile": "9123456789", "panNumber": "ABCDE1234F", "aadhaarLast4": "12a4"}, "aadhaarLast4 must contain only digits"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/customer", tc.body))
			body := testutil.AssertErrorBody(s.T(), rr, http.StatusBadRequest, "bad_request")
			s.Equal(tc.message, body["message"])
		})
	}
}

func (s *HandlerSuite) TestGetAndSearch() {
	c := s.register("7748796854", "ABCDE1234F")

	s.Run("get by id", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/customer/"+c.ID.String()))
		s.Require().Equal(http.StatusOK, rr.Code)
		s.Equal("v1", rr.Header().Get("X-API-Version"))
		got := testutil.UnmarshalResponse[models.Customer](s.T(), rr)
		s.Equal(c.CustomerCode, got.CustomerCode)
	})

	s.Run("malformed id is a bad request", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/customer/not-a-uuid"))
		testutil.AssertErrorBody(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unknown id is not found", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/customer/9b2f0c7e-3c3a-4d62-9f7e-5f8a2b1d4c11"))
		testutil.AssertErrorBody(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("search by mobile and code", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/customer?mobile=7748796854&customerCode="+c.CustomerCode))
		s.Require().Equal(http.StatusOK, rr.Code)
		got := testutil.UnmarshalResponse[[]models.Customer](s.T(), rr)
		s.Len(*got, 1)
	})

	s.Run("search without filters is a bad request", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/customer"))
		testutil.AssertErrorBody(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("search with no match is not found", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/customer?mobile=9000000000"))
		testutil.AssertErrorBody(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func (s *HandlerSuite) TestBlockAndUnblock() {
	c := s.register("7748796854", "ABCDE1234F")
	path := "/v1/customer/" + c.ID.String()

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPut, path+"/block"))
	s.Require().Equal(http.StatusOK, rr.Code)
	res := testutil.UnmarshalResponse[models.StatusChange](s.T(), rr)
	s.Equal(c.ID, res.CustomerID)
	s.NotEmpty(res.Message)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPut, path+"/block"))
	testutil.AssertErrorBody(s.T(), rr, http.StatusNotFound, "not_found")

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPut, path+"/unblock"))
	s.Equal(http.StatusOK, rr.Code)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPut, path+"/unblock"))
	testutil.AssertErrorBody(s.T(), rr, http.StatusNotFound, "not_found")
}

func (s *HandlerSuite) TestAddresses() {
	c := s.register("7748796854", "ABCDE1234F")
	body := map[string]string{
		"customerId":  c.ID.String(),
		"addressType": "PERMANENT",
		"line1":       "12 Lake Road",
		"city":        "Pune",
		"state":       "Maharashtra",
		"country":     "India",
		"pincode":     "411001",
	}

	s.Run("list before any address distinguishes missing address", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/customer/"+c.ID.String()+"/address"))
		errBody := testutil.AssertErrorBody(s.T(), rr, http.StatusNotFound, "not_found")
		s.Equal("address not found for customer", errBody["message"])
	})

	s.Run("create", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/customer/address", body))
		s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
		a := testutil.UnmarshalResponse[models.Address](s.T(), rr)
		s.Equal(models.AddressTypePermanent, a.AddressType)
		s.True(a.IsActive)
	})

	s.Run("second address of the same type conflicts", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/customer/address", body))
		testutil.AssertErrorBody(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("list", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/customer/"+c.ID.String()+"/address"))
		s.Require().Equal(http.StatusOK, rr.Code)
		got := testutil.UnmarshalResponse[[]models.Address](s.T(), rr)
		s.Len(*got, 1)
	})

	s.Run("invalid pincode", func() {
		bad := map[string]string{}
		for k, v := range body {
			bad[k] = v
		}
		bad["addressType"] = "OFFICE"
		bad["pincode"] = "011001"
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/customer/address", bad))
		errBody := testutil.AssertErrorBody(s.T(), rr, http.StatusBadRequest, "bad_request")
		s.Equal("Pincode must be a valid 6-digit Indian PIN code", errBody["message"])
	})

	s.Run("unknown address type", func() {
		bad := map[string]string{}
		for k, v := range body {
			bad[k] = v
		}
		bad["addressType"] = "HOLIDAY"
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/customer/address", bad))
		testutil.AssertErrorBody(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("unknown customer", func() {
		other := map[string]string{}
		for k, v := range body {
			other[k] = v
		}
		other["customerId"] = "9b2f0c7e-3c3a-4d62-9f7e-5f8a2b1d4c11"
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/v1/customer/address", other))
		errBody := testutil.AssertErrorBody(s.T(), rr, http.StatusNotFound, "not_found")
		s.Equal("customer not found", errBody["message"])
	})
}

func (s *HandlerSuite) TestKycLifecycle() {
	c := s.register("7748796854", "ABCDE1234F")
	cid := c.ID.String()

	s.Run("upload", func() {
		rr := testutil.DoRequest(s.router, s.upload(cid, "PAN", pdfFile()))
		s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
		res := testutil.UnmarshalResponse[models.UploadResult](s.T(), rr)
		s.Equal(models.DocumentStatusUploaded, res.Status)
		s.False(res.DocumentID.IsNil())
		s.Equal(1, s.gateway.Len())
	})

	s.Run("second upload of the same type conflicts", func() {
		rr := testutil.DoRequest(s.router, s.upload(cid, "PAN", pdfFile()))
		testutil.AssertErrorBody(s.T(), rr, http.StatusConflict, "conflict")
		s.Equal(1, s.gateway.Len())
	})

	s.Run("download URL", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/customer/"+cid+"/kyc/PAN/download"))
		s.Require().Equal(http.StatusOK, rr.Code)
		res := testutil.UnmarshalResponse[models.DownloadURL](s.T(), rr)
		s.Equal(int64(300), res.ExpiresInSeconds)
		s.True(strings.HasPrefix(res.DownloadURL, "memory://kyc-test/kyc/"+cid+"/PAN-"))
	})

	s.Run("download of a missing document", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/customer/"+cid+"/kyc/AADHAAR/download"))
		testutil.AssertErrorBody(s.T(), rr, http.StatusNotFound, "not_found")
	})

	s.Run("reject then approve", func() {
		for _, status := range []string{"REJECTED", "VERIFIED"} {
			req := testutil.NewJSONRequest(s.T(), http.MethodPut,
				"/v1/customer/"+cid+"/kyc/PAN/status", map[string]string{"status": status})
			rr := testutil.DoRequest(s.router, testutil.WithRequestTime(req, decidedAt))
			s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
			res := testutil.UnmarshalResponse[models.Decision](s.T(), rr)
			s.Equal(models.DocumentStatus(status), res.Status)
			s.Equal("KYC document "+strings.ToLower(status)+" successfully", res.Message)
		}
	})

	s.Run("verified document is terminal", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut,
			"/v1/customer/"+cid+"/kyc/PAN/status", map[string]string{"status": "REJECTED"}))
		errBody := testutil.AssertErrorBody(s.T(), rr, http.StatusBadRequest, "bad_request")
		s.Equal("KYC document already verified", errBody["message"])
	})

	s.Run("decision status must be VERIFIED or REJECTED", func() {
		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut,
			"/v1/customer/"+cid+"/kyc/PAN/status", map[string]string{"status": "UPLOADED"}))
		testutil.AssertErrorBody(s.T(), rr, http.StatusBadRequest, "bad_request")
	})

	s.Run("customer view lists the verified document with ADMIN verifier", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/v1/customer/"+cid))
		s.Require().Equal(http.StatusOK, rr.Code)
		got := testutil.UnmarshalResponse[models.Customer](s.T(), rr)
		s.Require().Len(got.KycDocuments, 1)
		doc := got.KycDocuments[0]
		s.Equal(models.DocumentStatusVerified, doc.Status)
		s.Require().NotNil(doc.VerifiedBy)
		s.Equal(models.VerifierAdmin, *doc.VerifiedBy)
		s.Require().NotNil(doc.VerifiedAt)
		s.True(decidedAt.Equal(*doc.VerifiedAt))
		s.Equal(models.KycStatusPending, got.KycStatus)
	})
}

func (s *HandlerSuite) TestUploadAdmission() {
	c := s.register("7748796854", "ABCDE1234F")
	cid := c.ID.String()

	cases := []struct {
		name    string
		docType string
		file    testutil.MultipartFile
		message string
	}{
		{
			name:    "unknown document type",
			docType: "PHOTO",
			file:    pdfFile(),
			message: "documentType must be PAN, AADHAAR, or ADDRESS_PROOF",
		},
		{
			name:    "declared type not allowed",
			docType: "PAN",
			file:    testutil.MultipartFile{Field: "file", Filename: "pan.txt", ContentType: "text/plain", Content: pdfContent},
			message: "only PDF, JPEG, or PNG files are allowed",
		},
		{
			name:    "content does not match an allowed type",
			docType: "PAN",
			file:    testutil.MultipartFile{Field: "file", Filename: "pan.pdf", ContentType: "application/pdf", Content: []byte("plain text pretending to be a pdf")},
			message: "file content is not a PDF, JPEG, or PNG document",
		},
		{
			name:    "file too large",
			docType: "PAN",
			file:    testutil.MultipartFile{Field: "file", Filename: "pan.pdf", ContentType: "application/pdf", Content: append(append([]byte{}, pdfContent...), make([]byte, 2048)...)},
			message: "file exceeds the maximum size of 1024 bytes",
		},
		{
			name:    "empty file",
			docType: "PAN",
			file:    testutil.MultipartFile{Field: "file", Filename: "pan.pdf", ContentType: "application/pdf"},
			message: "file is required",
		},
		{
			name:    "missing file part",
			docType: "PAN",
			file:    testutil.MultipartFile{Field: "other", Filename: "pan.pdf", ContentType: "application/pdf", Content: pdfContent},
			message: "file is required",
		},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			rr := testutil.DoRequest(s.router, s.upload(cid, tc.docType, tc.file))
			errBody := testutil.AssertErrorBody(s.T(), rr, http.StatusBadRequest, "bad_request")
			s.Equal(tc.message, errBody["message"])
		})
	}
	s.Zero(s.gateway.Len())

	s.Run("PNG accepted for address proof", func() {
		rr := testutil.DoRequest(s.router, s.upload(cid, "ADDRESS_PROOF",
			testutil.MultipartFile{Field: "file", Filename: "bill.png", ContentType: "image/png", Content: pngContent}))
		s.Equal(http.StatusCreated, rr.Code, rr.Body.String())
	})

	s.Run("unknown customer", func() {
		rr := testutil.DoRequest(s.router, s.upload("9b2f0c7e-3c3a-4d62-9f7e-5f8a2b1d4c11", "PAN", pdfFile()))
		testutil.AssertErrorBody(s.T(), rr, http.StatusNotFound, "not_found")
	})
}

func TestUploadRouteHasItsOwnBudget(t *testing.T) {
	policy, err := rlmodels.NewPolicy(100, 1, time.Minute)
	if err != nil {
		t.Fatalf("policy: %v", err)
	}
	limiter := middleware.New(bucket.New(), policy, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router, _ := newRouter(t, WithRateLimiter(limiter))

	req := func() *http.Request {
		return testutil.WithClientIP(testutil.NewMultipartRequest(t, http.MethodPost,
			"/v1/customer/9b2f0c7e-3c3a-4d62-9f7e-5f8a2b1d4c11/kyc",
			map[string]string{"documentType": "PAN"}, pdfFile()), "10.1.1.1")
	}

	first := testutil.DoRequest(router, req())
	if first.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown customer, got %d", first.Code)
	}
	second := testutil.DoRequest(router, req())
	testutil.AssertErrorBody(t, second, http.StatusTooManyRequests, "rate_limited")
}
