package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/crm-contracts/internal/config"
	"github.com/nurpe/crm-contracts/internal/esign"
	"github.com/nurpe/crm-contracts/internal/model"
	"github.com/nurpe/crm-contracts/internal/repository"
)

type sendFixture struct {
	contracts *mockContractStore
	fields    *mockFieldStore
	files     *mockFileReader
	provider  *mockSubmissionClient
	svc       *SendService
}

func newSendFixture() *sendFixture {
	f := &sendFixture{
		contracts: &mockContractStore{},
		fields:    &mockFieldStore{},
		files:     &mockFileReader{},
		provider:  &mockSubmissionClient{},
	}
	cfg := config.ESignConfig{
		SendEmail:    true,
		ReplyTo:      "crm@example.com",
		EmailSubject: "Sign {{title}}",
		EmailBody:    "Hi {{name}}, please sign {{title}}.",
	}
	f.svc = NewSendService(f.contracts, f.fields, f.files, f.provider, cfg, zerolog.Nop())
	return f
}

func signerID(id int64) *int64 { return &id }

func (f *sendFixture) withDraftContract() {
	contract := draftContract(1)
	contract.LockOrder = true
	f.contracts.On("GetContract", mock.Anything, int64(1)).Return(contract, nil)
}

func (f *sendFixture) withDocuments() {
	f.contracts.On("ListDocuments", mock.Anything, int64(1)).Return([]model.Document{
		{ID: 10, ContractID: 1, Filename: "nda.pdf", OriginalPath: "docs/nda.pdf"},
	}, nil)
}

func (f *sendFixture) withSigners() {
	phone := "+15551234"
	f.contracts.On("ListSigners", mock.Anything, int64(1)).Return([]model.Signer{
		{ID: 11, ContractID: 1, Name: "Alice", Email: "alice@example.com", Phone: &phone, SignerType: model.SignerTypeSigner},
		{ID: 12, ContractID: 1, Name: "Bob", Email: "bob@example.com", SignerType: "cc"},
	}, nil)
}

func (f *sendFixture) withFields() {
	f.fields.On("ListByContract", mock.Anything, int64(1)).Return([]model.FieldWithRefs{
		{Field: model.Field{
			ID:         5,
			DocumentID: 10,
			SignerID:   signerID(11),
			FieldType:  model.FieldTypeInput,
			Pages:      "2,4",
			Position:   model.Position{X: 59.5, Y: 84.2},
			Size:       model.Size{Width: 119, Height: 84.2},
		}},
	}, nil)
}

func (f *sendFixture) withFile() {
	f.files.On("Read", "docs/nda.pdf").Return([]byte("%PDF-1.4 test"), nil)
}

func successResponse() *esign.SubmissionResponse {
	return &esign.SubmissionResponse{
		ID:     42,
		Slug:   "sub-abc",
		Status: "pending",
		Submitters: []esign.SubmitterResponse{
			{ID: 700, Slug: "alice-slug", Email: "alice@example.com", ExternalID: "11"},
		},
	}
}

func TestSendContractNotFound(t *testing.T) {
	f := newSendFixture()
	f.contracts.On("GetContract", mock.Anything, int64(1)).Return(nil, gorm.ErrRecordNotFound)

	_, err := f.svc.SendContract(context.Background(), 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSendRejectsNonDraft(t *testing.T) {
	f := newSendFixture()
	f.contracts.On("GetContract", mock.Anything, int64(1)).Return(sentContract(1), nil)

	_, err := f.svc.SendContract(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidState)
	f.provider.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
}

func TestSendRequiresDocuments(t *testing.T) {
	f := newSendFixture()
	f.withDraftContract()
	f.contracts.On("ListDocuments", mock.Anything, int64(1)).Return([]model.Document{}, nil)

	_, err := f.svc.SendContract(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "no documents")
}

func TestSendRequiresSigners(t *testing.T) {
	f := newSendFixture()
	f.withDraftContract()
	f.withDocuments()
	f.contracts.On("ListSigners", mock.Anything, int64(1)).Return([]model.Signer{}, nil)

	_, err := f.svc.SendContract(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "no signers")
}

func TestSendRequiresUniqueSignerNames(t *testing.T) {
	f := newSendFixture()
	f.withDraftContract()
	f.withDocuments()
	f.contracts.On("ListSigners", mock.Anything, int64(1)).Return([]model.Signer{
		{ID: 11, Name: "Alice", SignerType: model.SignerTypeSigner},
		{ID: 13, Name: "Alice", SignerType: model.SignerTypeSigner},
	}, nil)

	_, err := f.svc.SendContract(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Alice")
}

func TestSendNamesSignersWithoutFields(t *testing.T) {
	f := newSendFixture()
	f.withDraftContract()
	f.withDocuments()
	f.withSigners()
	f.fields.On("ListByContract", mock.Anything, int64(1)).Return([]model.FieldWithRefs{}, nil)

	_, err := f.svc.SendContract(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "Alice")
	// Bob only receives a copy, so he is not expected to have fields
	assert.NotContains(t, err.Error(), "Bob")
	f.provider.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
}

func TestSendBuildsSubmissionRequest(t *testing.T) {
	f := newSendFixture()
	f.withDraftContract()
	f.withDocuments()
	f.withSigners()
	f.withFields()
	f.withFile()

	var captured esign.SubmissionRequest
	f.provider.On("CreateSubmission", mock.Anything, mock.AnythingOfType("esign.SubmissionRequest")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(esign.SubmissionRequest)
		}).
		Return(successResponse(), nil)
	f.provider.On("SigningLink", "alice-slug").Return("https://sign.example.com/s/alice-slug")
	f.contracts.On("MarkSent", mock.Anything, mock.AnythingOfType("repository.MarkSentParams")).Return(nil)

	result, err := f.svc.SendContract(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, "NDA", captured.Name)
	assert.Equal(t, "preserved", captured.Order)
	assert.Equal(t, "crm@example.com", captured.ReplyTo)

	require.Len(t, captured.Documents, 1)
	doc := captured.Documents[0]
	assert.Equal(t, "nda.pdf", doc.Name)
	expectedFile := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 test"))
	assert.Equal(t, expectedFile, doc.File)

	// one multi-page field expands into one area per page
	require.Len(t, doc.Fields, 1)
	field := doc.Fields[0]
	assert.Equal(t, "text", field.Type) // input maps to text
	assert.Equal(t, "Alice", field.Role)
	assert.True(t, field.Required)
	require.Len(t, field.Areas, 2)
	assert.Equal(t, 2, field.Areas[0].Page)
	assert.Equal(t, 4, field.Areas[1].Page)
	for _, area := range field.Areas {
		assert.InDelta(t, 0.1, area.X, 1e-9)
		assert.InDelta(t, 0.1, area.Y, 1e-9)
		assert.InDelta(t, 0.2, area.W, 1e-9)
		assert.InDelta(t, 0.1, area.H, 1e-9)
	}

	// only signing parties become submitters; the cc signer is skipped
	require.Len(t, captured.Submitters, 1)
	submitter := captured.Submitters[0]
	assert.Equal(t, "Alice", submitter.Role)
	assert.Equal(t, "11", submitter.ExternalID)
	assert.Equal(t, "+15551234", submitter.Phone)
	assert.Equal(t, "Sign NDA", submitter.Message.Subject)
	assert.Equal(t, "Hi Alice, please sign NDA.", submitter.Message.Body)

	assert.Equal(t, "42", result.SubmissionID)
	assert.Equal(t, "https://sign.example.com/s/alice-slug", result.SigningLinks[11])
}

func TestSendPersistsResponseIdentifiers(t *testing.T) {
	f := newSendFixture()
	f.withDraftContract()
	f.withDocuments()
	f.withSigners()
	f.withFields()
	f.withFile()

	f.provider.On("CreateSubmission", mock.Anything, mock.Anything).Return(successResponse(), nil)
	f.provider.On("SigningLink", "alice-slug").Return("https://sign.example.com/s/alice-slug")

	f.contracts.On("MarkSent", mock.Anything, mock.MatchedBy(func(p repository.MarkSentParams) bool {
		if p.ContractID != 1 || p.SubmissionID != "42" || p.SubmissionSlug != "sub-abc" {
			return false
		}
		if len(p.Submitters) != 1 {
			return false
		}
		s := p.Submitters[0]
		return s.SignerID == 11 && s.SubmitterID == "700" && s.SubmitterSlug == "alice-slug"
	})).Return(nil)

	result, err := f.svc.SendContract(context.Background(), 1)
	require.NoError(t, err)
	f.contracts.AssertExpectations(t)

	assert.WithinDuration(t, time.Now().UTC().AddDate(0, 0, 30), result.ExpiresAt, time.Minute)
}

func TestSendAbortsBeforePersistenceOnProviderFailure(t *testing.T) {
	f := newSendFixture()
	f.withDraftContract()
	f.withDocuments()
	f.withSigners()
	f.withFields()
	f.withFile()

	f.provider.On("CreateSubmission", mock.Anything, mock.Anything).
		Return(nil, errors.New("provider rejected submission (422): bad documents"))

	_, err := f.svc.SendContract(context.Background(), 1)
	assert.ErrorIs(t, err, ErrExternalService)
	assert.Contains(t, err.Error(), "bad documents")
	f.contracts.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything)
}

func TestSendStorageFailureAbortsBeforeProviderCall(t *testing.T) {
	f := newSendFixture()
	f.withDraftContract()
	f.withDocuments()
	f.withSigners()
	f.withFields()
	f.files.On("Read", "docs/nda.pdf").Return(nil, errors.New("document file docs/nda.pdf not found"))

	_, err := f.svc.SendContract(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStorage)
	f.provider.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
	f.contracts.AssertNotCalled(t, "MarkSent", mock.Anything, mock.Anything)
}

func TestSendRaceLoserGetsInvalidState(t *testing.T) {
	f := newSendFixture()
	f.withDraftContract()
	f.withDocuments()
	f.withSigners()
	f.withFields()
	f.withFile()

	f.provider.On("CreateSubmission", mock.Anything, mock.Anything).Return(successResponse(), nil)
	f.provider.On("SigningLink", "alice-slug").Return("https://sign.example.com/s/alice-slug")
	f.contracts.On("MarkSent", mock.Anything, mock.Anything).Return(repository.ErrStaleStatus)

	_, err := f.svc.SendContract(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestSendMalformedPagesIsFatal(t *testing.T) {
	f := newSendFixture()
	f.withDraftContract()
	f.withDocuments()
	f.withSigners()
	f.fields.On("ListByContract", mock.Anything, int64(1)).Return([]model.FieldWithRefs{
		{Field: model.Field{
			ID:         5,
			DocumentID: 10,
			SignerID:   signerID(11),
			FieldType:  model.FieldTypeSignature,
			Pages:      "1-x",
			Position:   model.Position{X: 10, Y: 10},
			Size:       model.Size{Width: 100, Height: 40},
		}},
	}, nil)
	f.withFile()

	_, err := f.svc.SendContract(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	f.provider.AssertNotCalled(t, "CreateSubmission", mock.Anything, mock.Anything)
}
