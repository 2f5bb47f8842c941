package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/crm-contracts/internal/model"
	"github.com/nurpe/crm-contracts/internal/repository"
)

func draftContract(id int64) *model.Contract {
	return &model.Contract{ID: id, Title: "NDA", Status: model.ContractStatusDraft, ExpirationDays: 30}
}

func sentContract(id int64) *model.Contract {
	c := draftContract(id)
	c.Status = model.ContractStatusSent
	return c
}

func newFieldService(contracts *mockContractStore, fields *mockFieldStore) *FieldService {
	return NewFieldService(contracts, fields, zerolog.Nop())
}

func validCreateInput() CreateFieldInput {
	return CreateFieldInput{
		ContractID: 1,
		DocumentID: 10,
		FieldType:  model.FieldTypeSignature,
		Pages:      "1",
		Position:   model.Position{X: 100, Y: 200},
		Size:       model.Size{Width: 150, Height: 50},
	}
}

func TestCreateFieldContractNotFound(t *testing.T) {
	contracts := &mockContractStore{}
	fields := &mockFieldStore{}
	contracts.On("GetContract", mock.Anything, int64(1)).Return(nil, gorm.ErrRecordNotFound)

	_, err := newFieldService(contracts, fields).CreateField(context.Background(), validCreateInput())
	assert.ErrorIs(t, err, ErrNotFound)
	fields.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestFieldMutationsRejectNonDraftContract(t *testing.T) {
	contracts := &mockContractStore{}
	fields := &mockFieldStore{}
	contracts.On("GetContract", mock.Anything, int64(1)).Return(sentContract(1), nil)
	svc := newFieldService(contracts, fields)

	_, err := svc.CreateField(context.Background(), validCreateInput())
	assert.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.UpdateField(context.Background(), 1, 5, repository.FieldPatch{})
	assert.ErrorIs(t, err, ErrInvalidState)

	err = svc.DeleteField(context.Background(), 1, 5)
	assert.ErrorIs(t, err, ErrInvalidState)

	fields.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	fields.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	fields.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateFieldRejectsForeignDocument(t *testing.T) {
	contracts := &mockContractStore{}
	fields := &mockFieldStore{}
	contracts.On("GetContract", mock.Anything, int64(1)).Return(draftContract(1), nil)
	contracts.On("ListDocuments", mock.Anything, int64(1)).Return([]model.Document{
		{ID: 99, ContractID: 1, Filename: "other.pdf"},
	}, nil)

	_, err := newFieldService(contracts, fields).CreateField(context.Background(), validCreateInput())
	assert.ErrorIs(t, err, ErrNotFound)
	fields.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateFieldRejectsForeignSigner(t *testing.T) {
	contracts := &mockContractStore{}
	fields := &mockFieldStore{}
	contracts.On("GetContract", mock.Anything, int64(1)).Return(draftContract(1), nil)
	contracts.On("ListDocuments", mock.Anything, int64(1)).Return([]model.Document{
		{ID: 10, ContractID: 1, Filename: "nda.pdf"},
	}, nil)
	contracts.On("ListSigners", mock.Anything, int64(1)).Return([]model.Signer{
		{ID: 20, ContractID: 1, Name: "Alice", SignerType: model.SignerTypeSigner},
	}, nil)

	input := validCreateInput()
	foreign := int64(777)
	input.SignerID = &foreign

	_, err := newFieldService(contracts, fields).CreateField(context.Background(), input)
	assert.ErrorIs(t, err, ErrNotFound)
	fields.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateFieldValidatesPagesUpFront(t *testing.T) {
	contracts := &mockContractStore{}
	fields := &mockFieldStore{}
	contracts.On("GetContract", mock.Anything, int64(1)).Return(draftContract(1), nil)

	input := validCreateInput()
	input.Pages = "1-x"

	_, err := newFieldService(contracts, fields).CreateField(context.Background(), input)
	assert.ErrorIs(t, err, ErrInvalidInput)
	fields.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateFieldSuccess(t *testing.T) {
	contracts := &mockContractStore{}
	fields := &mockFieldStore{}
	contracts.On("GetContract", mock.Anything, int64(1)).Return(draftContract(1), nil)
	contracts.On("ListDocuments", mock.Anything, int64(1)).Return([]model.Document{
		{ID: 10, ContractID: 1, Filename: "nda.pdf"},
	}, nil)

	signerName := "Alice"
	created := &model.FieldWithRefs{
		Field:            model.Field{ID: 5, DocumentID: 10, FieldType: model.FieldTypeSignature, Pages: "1"},
		DocumentFilename: "nda.pdf",
		SignerName:       &signerName,
	}
	fields.On("Create", mock.Anything, int64(1), mock.AnythingOfType("model.Field")).Return(created, nil)

	got, err := newFieldService(contracts, fields).CreateField(context.Background(), validCreateInput())
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ID)
	assert.Equal(t, "nda.pdf", got.DocumentFilename)
}

func TestUpdateFieldNotFoundInContract(t *testing.T) {
	contracts := &mockContractStore{}
	fields := &mockFieldStore{}
	contracts.On("GetContract", mock.Anything, int64(1)).Return(draftContract(1), nil)
	fields.On("GetField", mock.Anything, int64(1), int64(5)).Return(nil, gorm.ErrRecordNotFound)

	_, err := newFieldService(contracts, fields).UpdateField(context.Background(), 1, 5, repository.FieldPatch{})
	assert.ErrorIs(t, err, ErrNotFound)
	fields.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateFieldExplicitNullUnassignsSigner(t *testing.T) {
	contracts := &mockContractStore{}
	fields := &mockFieldStore{}
	contracts.On("GetContract", mock.Anything, int64(1)).Return(draftContract(1), nil)

	existing := &model.FieldWithRefs{Field: model.Field{ID: 5, DocumentID: 10}}
	fields.On("GetField", mock.Anything, int64(1), int64(5)).Return(existing, nil)

	patch := repository.FieldPatch{}
	patch.SignerID.Set = true // explicit null

	fields.On("Update", mock.Anything, int64(1), int64(5), mock.MatchedBy(func(p repository.FieldPatch) bool {
		return p.SignerID.Set && p.SignerID.Value == nil
	})).Return(existing, nil)

	_, err := newFieldService(contracts, fields).UpdateField(context.Background(), 1, 5, patch)
	require.NoError(t, err)
	// an explicit null must not trigger a signer ownership lookup
	contracts.AssertNotCalled(t, "ListSigners", mock.Anything, mock.Anything)
}

func TestUpdateFieldNullPagesRejected(t *testing.T) {
	contracts := &mockContractStore{}
	fields := &mockFieldStore{}
	contracts.On("GetContract", mock.Anything, int64(1)).Return(draftContract(1), nil)
	existing := &model.FieldWithRefs{Field: model.Field{ID: 5, DocumentID: 10}}
	fields.On("GetField", mock.Anything, int64(1), int64(5)).Return(existing, nil)

	patch := repository.FieldPatch{}
	patch.Pages.Set = true

	_, err := newFieldService(contracts, fields).UpdateField(context.Background(), 1, 5, patch)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDeleteFieldLosesRaceWithSend(t *testing.T) {
	contracts := &mockContractStore{}
	fields := &mockFieldStore{}
	contracts.On("GetContract", mock.Anything, int64(1)).Return(draftContract(1), nil)
	existing := &model.FieldWithRefs{Field: model.Field{ID: 5, DocumentID: 10}}
	fields.On("GetField", mock.Anything, int64(1), int64(5)).Return(existing, nil)
	fields.On("Delete", mock.Anything, int64(1), int64(5)).Return(repository.ErrStaleStatus)

	err := newFieldService(contracts, fields).DeleteField(context.Background(), 1, 5)
	assert.ErrorIs(t, err, ErrInvalidState)
}
