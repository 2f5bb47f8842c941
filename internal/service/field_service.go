package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/crm-contracts/internal/model"
	"github.com/nurpe/crm-contracts/internal/placement"
	"github.com/nurpe/crm-contracts/internal/repository"
)

type ContractStore interface {
	GetContract(ctx context.Context, id int64) (*model.Contract, error)
	ListDocuments(ctx context.Context, contractID int64) ([]model.Document, error)
	ListSigners(ctx context.Context, contractID int64) ([]model.Signer, error)
	MarkSent(ctx context.Context, params repository.MarkSentParams) error
	ListRegisterRows(ctx context.Context) ([]model.ContractRegisterRow, error)
}

type FieldStore interface {
	ListByContract(ctx context.Context, contractID int64) ([]model.FieldWithRefs, error)
	GetField(ctx context.Context, contractID, fieldID int64) (*model.FieldWithRefs, error)
	Create(ctx context.Context, contractID int64, field model.Field) (*model.FieldWithRefs, error)
	Update(ctx context.Context, contractID, fieldID int64, patch repository.FieldPatch) (*model.FieldWithRefs, error)
	Delete(ctx context.Context, contractID, fieldID int64) error
}

type FieldService struct {
	contracts ContractStore
	fields    FieldStore
	log       zerolog.Logger
}

func NewFieldService(contracts ContractStore, fields FieldStore, log zerolog.Logger) *FieldService {
	return &FieldService{contracts: contracts, fields: fields, log: log}
}

func (s *FieldService) ListFields(ctx context.Context, contractID int64) ([]model.FieldWithRefs, error) {
	if _, err := s.getContract(ctx, contractID); err != nil {
		return nil, err
	}
	return s.fields.ListByContract(ctx, contractID)
}

type CreateFieldInput struct {
	ContractID       int64
	DocumentID       int64
	SignerID         *int64
	FieldType        model.FieldType
	Pages            string
	Position         model.Position
	Size             model.Size
	HorizontalAdjust int
	VerticalAdjust   int
	Content          *string
}

func (s *FieldService) CreateField(ctx context.Context, input CreateFieldInput) (*model.FieldWithRefs, error) {
	if err := s.requireDraft(ctx, input.ContractID); err != nil {
		return nil, err
	}
	if input.FieldType == "" {
		return nil, fmt.Errorf("%w: fieldType is required", ErrInvalidInput)
	}
	if err := placement.ValidatePages(input.Pages); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.requireDocument(ctx, input.ContractID, input.DocumentID); err != nil {
		return nil, err
	}
	if input.SignerID != nil {
		if err := s.requireSigner(ctx, input.ContractID, *input.SignerID); err != nil {
			return nil, err
		}
	}

	created, err := s.fields.Create(ctx, input.ContractID, model.Field{
		DocumentID:       input.DocumentID,
		SignerID:         input.SignerID,
		FieldType:        input.FieldType,
		Pages:            input.Pages,
		Position:         input.Position,
		Size:             input.Size,
		HorizontalAdjust: input.HorizontalAdjust,
		VerticalAdjust:   input.VerticalAdjust,
		Content:          input.Content,
	})
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	return created, nil
}

func (s *FieldService) UpdateField(ctx context.Context, contractID, fieldID int64, patch repository.FieldPatch) (*model.FieldWithRefs, error) {
	if err := s.requireDraft(ctx, contractID); err != nil {
		return nil, err
	}
	if _, err := s.fields.GetField(ctx, contractID, fieldID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: field does not belong to contract", ErrNotFound)
		}
		return nil, err
	}

	if patch.FieldType.Set && patch.FieldType.Value == nil {
		return nil, fmt.Errorf("%w: fieldType cannot be null", ErrInvalidInput)
	}
	if patch.Pages.Set {
		if patch.Pages.Value == nil {
			return nil, fmt.Errorf("%w: pages cannot be null", ErrInvalidInput)
		}
		if err := placement.ValidatePages(*patch.Pages.Value); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	if patch.Position.Set && patch.Position.Value == nil {
		return nil, fmt.Errorf("%w: position cannot be null", ErrInvalidInput)
	}
	if patch.Size.Set && patch.Size.Value == nil {
		return nil, fmt.Errorf("%w: size cannot be null", ErrInvalidInput)
	}
	if patch.SignerID.Set && patch.SignerID.Value != nil {
		if err := s.requireSigner(ctx, contractID, *patch.SignerID.Value); err != nil {
			return nil, err
		}
	}

	updated, err := s.fields.Update(ctx, contractID, fieldID, patch)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	return updated, nil
}

func (s *FieldService) DeleteField(ctx context.Context, contractID, fieldID int64) error {
	if err := s.requireDraft(ctx, contractID); err != nil {
		return err
	}
	if _, err := s.fields.GetField(ctx, contractID, fieldID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: field does not belong to contract", ErrNotFound)
		}
		return err
	}

	if err := s.fields.Delete(ctx, contractID, fieldID); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return ErrInvalidState
		}
		return err
	}
	return nil
}

func (s *FieldService) getContract(ctx context.Context, contractID int64) (*model.Contract, error) {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract not found", ErrNotFound)
		}
		return nil, err
	}
	return contract, nil
}

func (s *FieldService) requireDraft(ctx context.Context, contractID int64) error {
	contract, err := s.getContract(ctx, contractID)
	if err != nil {
		return err
	}
	if contract.Status != model.ContractStatusDraft {
		return ErrInvalidState
	}
	return nil
}

func (s *FieldService) requireDocument(ctx context.Context, contractID, documentID int64) error {
	documents, err := s.contracts.ListDocuments(ctx, contractID)
	if err != nil {
		return err
	}
	for _, doc := range documents {
		if doc.ID == documentID {
			return nil
		}
	}
	return fmt.Errorf("%w: document does not belong to contract", ErrNotFound)
}

func (s *FieldService) requireSigner(ctx context.Context, contractID, signerID int64) error {
	signers, err := s.contracts.ListSigners(ctx, contractID)
	if err != nil {
		return err
	}
	for _, signer := range signers {
		if signer.ID == signerID {
			return nil
		}
	}
	return fmt.Errorf("%w: signer does not belong to contract", ErrNotFound)
}
