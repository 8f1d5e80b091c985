package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"onboarding/internal/customer/models"
	"onboarding/internal/customer/service/mocks"
	customerstore "onboarding/internal/customer/store/customer"
	documentstore "onboarding/internal/customer/store/document"
	gatewaymocks "onboarding/internal/objectstore/mocks"
	id "onboarding/pkg/domain"
	dErrors "onboarding/pkg/domain-errors"
	"onboarding/pkg/platform/fingerprint"
	"onboarding/pkg/platform/sentinel"
	"onboarding/pkg/requestcontext"
)

type LedgerSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	gateway   *gatewaymocks.MockGateway
	documents *documentstore.InMemory
	ledger    *Ledger
	customer  *models.Customer
	ctx       context.Context
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = gatewaymocks.NewMockGateway(s.ctrl)
	s.documents = documentstore.NewInMemory()
	s.ctx = requestcontext.WithTime(context.Background(), fixedNow)

	customers := customerstore.NewInMemory()
	c, err := models.NewCustomer(id.NewCustomerID(), validRegistration(), fixedNow)
	s.Require().NoError(err)
	s.Require().NoError(customers.Create(s.ctx, c))
	s.customer = c

	s.ledger = NewLedger(customers, s.documents, s.gateway, WithLogger(discardLogger()))
}

func (s *LedgerSuite) upload(docType models.DocumentType, content []byte) models.UploadInput {
	return models.UploadInput{
		CustomerID:   s.customer.ID,
		DocumentType: docType,
		Content:      content,
		MimeType:     "application/pdf",
		Size:         int64(len(content)),
	}
}

func (s *LedgerSuite) seedDocument(docType models.DocumentType, status models.DocumentStatus) *models.Document {
	doc := models.NewDocument(id.NewDocumentID(), s.upload(docType, []byte("seed")),
		models.ObjectKey(s.customer.ID, docType, fixedNow), "hash", fixedNow)
	doc.Status = status
	s.Require().NoError(s.documents.Create(s.ctx, doc))
	return doc
}

func (s *LedgerSuite) TestUpload() {
	content := []byte("0123456789")

	s.Run("stores bytes under a deterministic key before recording the row", func() {
		wantKey := "kyc/" + s.customer.ID.String() + "/PAN-" + itoa(fixedNow.UnixMilli())
		s.gateway.EXPECT().Put(gomock.Any(), wantKey, content, "application/pdf").Return(nil)

		res, err := s.ledger.Upload(s.ctx, s.upload(models.DocumentTypePAN, content))
		s.Require().NoError(err)
		s.Equal(models.DocumentStatusUploaded, res.Status)

		doc, err := s.documents.FindByCustomerAndType(s.ctx, s.customer.ID, models.DocumentTypePAN)
		s.Require().NoError(err)
		s.Equal(res.DocumentID, doc.ID)
		s.Equal(wantKey, doc.ObjectKey)
		s.Equal(fingerprint.Bytes(content), doc.DocumentHash)
		s.Equal(int64(10), doc.FileSize)
	})

	s.Run("re-upload of an existing type is a conflict without touching the gateway", func() {
		_, err := s.ledger.Upload(s.ctx, s.upload(models.DocumentTypePAN, content))
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown customer is not found without touching the gateway", func() {
		in := s.upload(models.DocumentTypeAadhaar, content)
		in.CustomerID = id.NewCustomerID()
		_, err := s.ledger.Upload(s.ctx, in)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("gateway failure records nothing", func() {
		s.gateway.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(errors.New("503 backend unavailable"))

		_, err := s.ledger.Upload(s.ctx, s.upload(models.DocumentTypeAddressProof, content))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Equal("failed to store KYC document", dErrors.MessageOf(err))

		_, err = s.documents.FindByCustomerAndType(s.ctx, s.customer.ID, models.DocumentTypeAddressProof)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("empty file is a bad request", func() {
		_, err := s.ledger.Upload(s.ctx, s.upload(models.DocumentTypeAadhaar, nil))
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func (s *LedgerSuite) TestDownloadURL() {
	doc := s.seedDocument(models.DocumentTypeAadhaar, models.DocumentStatusUploaded)

	s.Run("delegates to the gateway with the default TTL", func() {
		s.gateway.EXPECT().SignedReadURL(gomock.Any(), doc.ObjectKey, 300*time.Second).
			Return("https://storage.example/signed", nil)

		res, err := s.ledger.DownloadURL(s.ctx, s.customer.ID, models.DocumentTypeAadhaar)
		s.Require().NoError(err)
		s.Equal("https://storage.example/signed", res.DownloadURL)
		s.Equal(int64(300), res.ExpiresInSeconds)
		s.Equal(models.DocumentTypeAadhaar, res.DocumentType)
	})

	s.Run("missing document is not found", func() {
		_, err := s.ledger.DownloadURL(s.ctx, s.customer.ID, models.DocumentTypePAN)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("signing failure is internal", func() {
		s.gateway.EXPECT().SignedReadURL(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("no signer"))
		_, err := s.ledger.DownloadURL(s.ctx, s.customer.ID, models.DocumentTypeAadhaar)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *LedgerSuite) TestDecide() {
	decide := func(docType models.DocumentType, status models.DocumentStatus) (*models.Decision, error) {
		return s.ledger.Decide(s.ctx, models.DecideInput{
			CustomerID: s.customer.ID, DocumentType: docType, Status: status, VerifiedBy: models.VerifierAdmin,
		})
	}

	s.Run("approving an uploaded document verifies it", func() {
		s.seedDocument(models.DocumentTypePAN, models.DocumentStatusUploaded)
		res, err := decide(models.DocumentTypePAN, models.DocumentStatusVerified)
		s.Require().NoError(err)
		s.Equal(models.DocumentStatusVerified, res.Status)
		s.Equal("KYC document verified successfully", res.Message)

		doc, err := s.documents.FindByCustomerAndType(s.ctx, s.customer.ID, models.DocumentTypePAN)
		s.Require().NoError(err)
		s.Require().NotNil(doc.VerifiedAt)
		s.Equal(fixedNow, *doc.VerifiedAt)
		s.Equal(models.VerifierAdmin, *doc.VerifiedBy)
	})

	s.Run("verified is terminal for approve and reject", func() {
		_, err := decide(models.DocumentTypePAN, models.DocumentStatusVerified)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		_, err = decide(models.DocumentTypePAN, models.DocumentStatusRejected)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("rejected can be rejected again and later approved", func() {
		s.seedDocument(models.DocumentTypeAadhaar, models.DocumentStatusUploaded)
		_, err := decide(models.DocumentTypeAadhaar, models.DocumentStatusRejected)
		s.Require().NoError(err)
		_, err = decide(models.DocumentTypeAadhaar, models.DocumentStatusRejected)
		s.Require().NoError(err)
		res, err := decide(models.DocumentTypeAadhaar, models.DocumentStatusVerified)
		s.Require().NoError(err)
		s.Equal(models.DocumentStatusVerified, res.Status)
	})

	s.Run("missing document is not found", func() {
		_, err := decide(models.DocumentTypeAddressProof, models.DocumentStatusVerified)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("UPLOADED is not a decision", func() {
		s.seedDocument(models.DocumentTypeAddressProof, models.DocumentStatusUploaded)
		_, err := decide(models.DocumentTypeAddressProof, models.DocumentStatusUploaded)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

func TestLedgerStoreRaces(t *testing.T) {
	ctx := requestcontext.WithTime(context.Background(), fixedNow)
	customerID := id.NewCustomerID()

	t.Run("losing a concurrent approval is a bad request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		documents := mocks.NewMockDocumentStore(ctrl)
		documents.EXPECT().FindByCustomerAndType(gomock.Any(), customerID, models.DocumentTypePAN).
			Return(&models.Document{ID: id.NewDocumentID(), CustomerID: customerID, DocumentType: models.DocumentTypePAN, Status: models.DocumentStatusUploaded}, nil)
		documents.EXPECT().SaveDecision(gomock.Any(), gomock.Any()).Return(sentinel.ErrInvalidState)

		ledger := NewLedger(mocks.NewMockCustomerChecker(ctrl), documents, gatewaymocks.NewMockGateway(ctrl))
		_, err := ledger.Decide(ctx, models.DecideInput{
			CustomerID: customerID, DocumentType: models.DocumentTypePAN,
			Status: models.DocumentStatusVerified, VerifiedBy: models.VerifierAdmin,
		})
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
	})

	t.Run("a document removed before the decision lands is not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		documents := mocks.NewMockDocumentStore(ctrl)
		documents.EXPECT().FindByCustomerAndType(gomock.Any(), customerID, models.DocumentTypePAN).
			Return(&models.Document{ID: id.NewDocumentID(), CustomerID: customerID, DocumentType: models.DocumentTypePAN, Status: models.DocumentStatusUploaded}, nil)
		documents.EXPECT().SaveDecision(gomock.Any(), gomock.Any()).Return(sentinel.ErrNotFound)

		ledger := NewLedger(mocks.NewMockCustomerChecker(ctrl), documents, gatewaymocks.NewMockGateway(ctrl))
		_, err := ledger.Decide(ctx, models.DecideInput{
			CustomerID: customerID, DocumentType: models.DocumentTypePAN,
			Status: models.DocumentStatusRejected, VerifiedBy: models.VerifierAdmin,
		})
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("unique violation after a stored object maps to conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		customers := mocks.NewMockCustomerChecker(ctrl)
		documents := mocks.NewMockDocumentStore(ctrl)
		gateway := gatewaymocks.NewMockGateway(ctrl)

		customers.EXPECT().Exists(gomock.Any(), customerID).Return(true, nil)
		documents.EXPECT().FindByCustomerAndType(gomock.Any(), customerID, models.DocumentTypePAN).Return(nil, sentinel.ErrNotFound)
		gateway.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		documents.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)

		ledger := NewLedger(customers, documents, gateway, WithLogger(discardLogger()))
		_, err := ledger.Upload(ctx, models.UploadInput{
			CustomerID: customerID, DocumentType: models.DocumentTypePAN,
			Content: []byte("data"), MimeType: "image/png",
		})
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			t.Fatalf("expected conflict, got %v", err)
		}
	})

	t.Run("unknown verifier is rejected before any lookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		ledger := NewLedger(mocks.NewMockCustomerChecker(ctrl), mocks.NewMockDocumentStore(ctrl), gatewaymocks.NewMockGateway(ctrl))
		_, err := ledger.Decide(ctx, models.DecideInput{
			CustomerID: customerID, DocumentType: models.DocumentTypePAN,
			Status: models.DocumentStatusVerified, VerifiedBy: models.Verifier("ROBOT"),
		})
		if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
			t.Fatalf("expected bad request, got %v", err)
		}
	})
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
