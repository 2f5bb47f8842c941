package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/crm-contracts/internal/model"
)

type RegisterGenerator interface {
	Generate(rows []model.ContractRegisterRow) ([]byte, error)
}

type LayoutRenderer interface {
	Render(contract model.Contract, documents []model.Document, fields []model.FieldWithRefs) ([]byte, error)
}

// ContractService covers the reporting side: the xlsx contracts register and
// the field-layout preview PDF.
type ContractService struct {
	contracts ContractStore
	fields    FieldStore
	excel     RegisterGenerator
	pdf       LayoutRenderer
}

func NewContractService(contracts ContractStore, fields FieldStore, excel RegisterGenerator, pdf LayoutRenderer) *ContractService {
	return &ContractService{contracts: contracts, fields: fields, excel: excel, pdf: pdf}
}

type FileResult struct {
	FileName string
	Content  []byte
}

func (s *ContractService) ExportRegister(ctx context.Context) (*FileResult, error) {
	rows, err := s.contracts.ListRegisterRows(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(rows)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: fmt.Sprintf("contracts-register-%s.xlsx", time.Now().Format("20060102")),
		Content:  content,
	}, nil
}

func (s *ContractService) PreviewLayout(ctx context.Context, contractID int64) (*FileResult, error) {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract not found", ErrNotFound)
		}
		return nil, err
	}

	documents, err := s.contracts.ListDocuments(ctx, contractID)
	if err != nil {
		return nil, err
	}
	fields, err := s.fields.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}

	content, err := s.pdf.Render(*contract, documents, fields)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName: fmt.Sprintf("contract-%d-layout.pdf", contractID),
		Content:  content,
	}, nil
}
