package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nurpe/crm-contracts/internal/model"
)

type FieldRepository struct {
	db *gorm.DB
}

func NewFieldRepository(db *gorm.DB) *FieldRepository {
	return &FieldRepository{db: db}
}

type fieldRow struct {
	ID               int64
	DocumentID       int64
	SignerID         *int64
	FieldType        string
	Pages            string
	PosX             float64
	PosY             float64
	Width            float64
	Height           float64
	HorizontalAdjust int
	VerticalAdjust   int
	Content          *string
	DocumentFilename string
	SignerName       *string
}

func (row fieldRow) toModel() model.FieldWithRefs {
	return model.FieldWithRefs{
		Field: model.Field{
			ID:               row.ID,
			DocumentID:       row.DocumentID,
			SignerID:         row.SignerID,
			FieldType:        model.FieldType(row.FieldType),
			Pages:            row.Pages,
			Position:         model.Position{X: row.PosX, Y: row.PosY},
			Size:             model.Size{Width: row.Width, Height: row.Height},
			HorizontalAdjust: row.HorizontalAdjust,
			VerticalAdjust:   row.VerticalAdjust,
			Content:          row.Content,
		},
		DocumentFilename: row.DocumentFilename,
		SignerName:       row.SignerName,
	}
}

const fieldSelect = `
	SELECT
		f.id,
		f.document_id,
		f.signer_id,
		f.field_type,
		f.pages,
		f.pos_x,
		f.pos_y,
		f.width,
		f.height,
		f.horizontal_adjust,
		f.vertical_adjust,
		f.content,
		d.filename AS document_filename,
		s.name AS signer_name
	FROM contract_fields f
	JOIN contract_documents d ON d.id = f.document_id
	LEFT JOIN contract_signers s ON s.id = f.signer_id
`

func (r *FieldRepository) ListByContract(ctx context.Context, contractID int64) ([]model.FieldWithRefs, error) {
	var rows []fieldRow
	err := r.db.WithContext(ctx).Raw(
		fieldSelect+` WHERE d.contract_id = ? ORDER BY d.sort_order ASC, f.id ASC`,
		contractID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	fields := make([]model.FieldWithRefs, 0, len(rows))
	for _, row := range rows {
		fields = append(fields, row.toModel())
	}
	return fields, nil
}

func (r *FieldRepository) GetField(ctx context.Context, contractID, fieldID int64) (*model.FieldWithRefs, error) {
	var rows []fieldRow
	err := r.db.WithContext(ctx).Raw(
		fieldSelect+` WHERE f.id = ? AND d.contract_id = ?`,
		fieldID, contractID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	field := rows[0].toModel()
	return &field, nil
}

// Create inserts a field, re-validating inside the statement that the parent
// contract is still in draft. A concurrent send makes the insert a no-op,
// reported as ErrStaleStatus.
func (r *FieldRepository) Create(ctx context.Context, contractID int64, field model.Field) (*model.FieldWithRefs, error) {
	var inserted []struct{ ID int64 }
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO contract_fields (
			document_id,
			signer_id,
			field_type,
			pages,
			pos_x,
			pos_y,
			width,
			height,
			horizontal_adjust,
			vertical_adjust,
			content
		)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (
			SELECT 1 FROM contracts WHERE id = ? AND status = 'draft'
		)
		RETURNING id
	`,
		field.DocumentID,
		field.SignerID,
		field.FieldType,
		field.Pages,
		field.Position.X,
		field.Position.Y,
		field.Size.Width,
		field.Size.Height,
		field.HorizontalAdjust,
		field.VerticalAdjust,
		field.Content,
		contractID,
	).Scan(&inserted).Error
	if err != nil {
		return nil, err
	}
	if len(inserted) == 0 {
		return nil, ErrStaleStatus
	}
	return r.GetField(ctx, contractID, inserted[0].ID)
}

// FieldPatch is a partial update: only keys the caller explicitly sent are
// applied, and an explicit null clears nullable columns.
type FieldPatch struct {
	SignerID         model.Optional[int64]
	FieldType        model.Optional[model.FieldType]
	Pages            model.Optional[string]
	Position         model.Optional[model.Position]
	Size             model.Optional[model.Size]
	HorizontalAdjust model.Optional[int]
	VerticalAdjust   model.Optional[int]
	Content          model.Optional[string]
}

func (p FieldPatch) Empty() bool {
	return !p.SignerID.Set && !p.FieldType.Set && !p.Pages.Set && !p.Position.Set &&
		!p.Size.Set && !p.HorizontalAdjust.Set && !p.VerticalAdjust.Set && !p.Content.Set
}

// Update applies a patch, building the SET list only from keys present in
// the request. The WHERE clause re-validates draft status and contract
// ownership at write time; zero affected rows means the guard failed.
func (r *FieldRepository) Update(ctx context.Context, contractID, fieldID int64, patch FieldPatch) (*model.FieldWithRefs, error) {
	if patch.Empty() {
		return r.GetField(ctx, contractID, fieldID)
	}

	var sets []string
	var args []interface{}

	if patch.SignerID.Set {
		sets = append(sets, "signer_id = ?")
		args = append(args, patch.SignerID.Value)
	}
	if patch.FieldType.Set && patch.FieldType.Value != nil {
		sets = append(sets, "field_type = ?")
		args = append(args, *patch.FieldType.Value)
	}
	if patch.Pages.Set && patch.Pages.Value != nil {
		sets = append(sets, "pages = ?")
		args = append(args, *patch.Pages.Value)
	}
	if patch.Position.Set && patch.Position.Value != nil {
		sets = append(sets, "pos_x = ?", "pos_y = ?")
		args = append(args, patch.Position.Value.X, patch.Position.Value.Y)
	}
	if patch.Size.Set && patch.Size.Value != nil {
		sets = append(sets, "width = ?", "height = ?")
		args = append(args, patch.Size.Value.Width, patch.Size.Value.Height)
	}
	if patch.HorizontalAdjust.Set && patch.HorizontalAdjust.Value != nil {
		sets = append(sets, "horizontal_adjust = ?")
		args = append(args, *patch.HorizontalAdjust.Value)
	}
	if patch.VerticalAdjust.Set && patch.VerticalAdjust.Value != nil {
		sets = append(sets, "vertical_adjust = ?")
		args = append(args, *patch.VerticalAdjust.Value)
	}
	if patch.Content.Set {
		sets = append(sets, "content = ?")
		args = append(args, patch.Content.Value)
	}

	if len(sets) == 0 {
		return r.GetField(ctx, contractID, fieldID)
	}

	query := fmt.Sprintf(`
		UPDATE contract_fields f
		SET %s
		FROM contract_documents d, contracts c
		WHERE f.id = ?
			AND d.id = f.document_id
			AND d.contract_id = ?
			AND c.id = d.contract_id
			AND c.status = 'draft'
	`, strings.Join(sets, ", "))
	args = append(args, fieldID, contractID)

	res := r.db.WithContext(ctx).Exec(query, args...)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrStaleStatus
	}
	return r.GetField(ctx, contractID, fieldID)
}

// Delete removes a field with the same write-time draft guard as Update.
func (r *FieldRepository) Delete(ctx context.Context, contractID, fieldID int64) error {
	res := r.db.WithContext(ctx).Exec(`
		DELETE FROM contract_fields f
		USING contract_documents d, contracts c
		WHERE f.id = ?
			AND d.id = f.document_id
			AND d.contract_id = ?
			AND c.id = d.contract_id
			AND c.status = 'draft'
	`, fieldID, contractID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}
