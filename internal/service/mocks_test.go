package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/nurpe/crm-contracts/internal/esign"
	"github.com/nurpe/crm-contracts/internal/model"
	"github.com/nurpe/crm-contracts/internal/repository"
)

type mockContractStore struct {
	mock.Mock
}

func (m *mockContractStore) GetContract(ctx context.Context, id int64) (*model.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Contract), args.Error(1)
}

func (m *mockContractStore) ListDocuments(ctx context.Context, contractID int64) ([]model.Document, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Document), args.Error(1)
}

func (m *mockContractStore) ListSigners(ctx context.Context, contractID int64) ([]model.Signer, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Signer), args.Error(1)
}

func (m *mockContractStore) MarkSent(ctx context.Context, params repository.MarkSentParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *mockContractStore) ListRegisterRows(ctx context.Context) ([]model.ContractRegisterRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ContractRegisterRow), args.Error(1)
}

type mockFieldStore struct {
	mock.Mock
}

func (m *mockFieldStore) ListByContract(ctx context.Context, contractID int64) ([]model.FieldWithRefs, error) {
	args := m.Called(ctx, contractID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.FieldWithRefs), args.Error(1)
}

func (m *mockFieldStore) GetField(ctx context.Context, contractID, fieldID int64) (*model.FieldWithRefs, error) {
	args := m.Called(ctx, contractID, fieldID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FieldWithRefs), args.Error(1)
}

func (m *mockFieldStore) Create(ctx context.Context, contractID int64, field model.Field) (*model.FieldWithRefs, error) {
	args := m.Called(ctx, contractID, field)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FieldWithRefs), args.Error(1)
}

func (m *mockFieldStore) Update(ctx context.Context, contractID, fieldID int64, patch repository.FieldPatch) (*model.FieldWithRefs, error) {
	args := m.Called(ctx, contractID, fieldID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FieldWithRefs), args.Error(1)
}

func (m *mockFieldStore) Delete(ctx context.Context, contractID, fieldID int64) error {
	args := m.Called(ctx, contractID, fieldID)
	return args.Error(0)
}

type mockFileReader struct {
	mock.Mock
}

func (m *mockFileReader) Read(originalPath string) ([]byte, error) {
	args := m.Called(originalPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockSubmissionClient struct {
	mock.Mock
}

func (m *mockSubmissionClient) CreateSubmission(ctx context.Context, req esign.SubmissionRequest) (*esign.SubmissionResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*esign.SubmissionResponse), args.Error(1)
}

func (m *mockSubmissionClient) SigningLink(slug string) string {
	args := m.Called(slug)
	return args.String(0)
}
