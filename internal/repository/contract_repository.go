package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nurpe/crm-contracts/internal/model"
)

// ErrStaleStatus is returned when a conditional write found the contract no
// longer in draft. Racing mutations lose with this error instead of
// overwriting a sent contract.
var ErrStaleStatus = errors.New("contract is not in draft status")

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) GetContract(ctx context.Context, id int64) (*model.Contract, error) {
	var row struct {
		ID             int64
		Title          string
		Status         string
		LockOrder      bool
		ExpirationDays int
		SubmissionID   *string
		SubmissionSlug *string
		SentAt         *time.Time
		ExpiresAt      *time.Time
		CreatedAt      time.Time
	}

	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			title,
			status,
			lock_order,
			expiration_days,
			submission_id,
			submission_slug,
			sent_at,
			expires_at,
			created_at
		FROM contracts
		WHERE id = ?
	`, id).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return &model.Contract{
		ID:             row.ID,
		Title:          row.Title,
		Status:         model.ContractStatus(row.Status),
		LockOrder:      row.LockOrder,
		ExpirationDays: row.ExpirationDays,
		SubmissionID:   row.SubmissionID,
		SubmissionSlug: row.SubmissionSlug,
		SentAt:         row.SentAt,
		ExpiresAt:      row.ExpiresAt,
		CreatedAt:      row.CreatedAt,
	}, nil
}

func (r *ContractRepository) ListDocuments(ctx context.Context, contractID int64) ([]model.Document, error) {
	var documents []model.Document
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			contract_id,
			filename,
			original_path,
			sort_order
		FROM contract_documents
		WHERE contract_id = ?
		ORDER BY sort_order ASC, id ASC
	`, contractID).Scan(&documents).Error
	if err != nil {
		return nil, err
	}
	return documents, nil
}

func (r *ContractRepository) ListSigners(ctx context.Context, contractID int64) ([]model.Signer, error) {
	var signers []model.Signer
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			id,
			contract_id,
			name,
			email,
			phone,
			signer_type,
			sort_order,
			status,
			submitter_id,
			submitter_slug
		FROM contract_signers
		WHERE contract_id = ?
		ORDER BY sort_order ASC, id ASC
	`, contractID).Scan(&signers).Error
	if err != nil {
		return nil, err
	}
	return signers, nil
}

// SignerSubmitter carries the provider identifiers written back to one
// signer after a successful submission.
type SignerSubmitter struct {
	SignerID      int64
	SubmitterID   string
	SubmitterSlug string
}

type MarkSentParams struct {
	ContractID     int64
	SubmissionID   string
	SubmissionSlug string
	SentAt         time.Time
	ExpiresAt      time.Time
	Submitters     []SignerSubmitter
}

// MarkSent performs the draft-to-sent transition. The contract update is
// conditional on the current status, so of two racing submissions only one
// commits; the loser gets ErrStaleStatus.
func (r *ContractRepository) MarkSent(ctx context.Context, params MarkSentParams) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(`
			UPDATE contracts
			SET status = 'sent',
				submission_id = ?,
				submission_slug = ?,
				sent_at = ?,
				expires_at = ?
			WHERE id = ? AND status = 'draft'
		`,
			params.SubmissionID,
			params.SubmissionSlug,
			params.SentAt,
			params.ExpiresAt,
			params.ContractID,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrStaleStatus
		}

		for _, submitter := range params.Submitters {
			err := tx.Exec(`
				UPDATE contract_signers
				SET status = 'sent',
					submitter_id = ?,
					submitter_slug = ?
				WHERE id = ? AND contract_id = ?
			`,
				submitter.SubmitterID,
				submitter.SubmitterSlug,
				submitter.SignerID,
				params.ContractID,
			).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ContractRepository) ListRegisterRows(ctx context.Context) ([]model.ContractRegisterRow, error) {
	var rows []model.ContractRegisterRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			c.id,
			c.title,
			c.status,
			c.created_at,
			c.sent_at,
			c.expires_at,
			COUNT(DISTINCT s.id) AS signer_count,
			COUNT(DISTINCT f.id) AS field_count
		FROM contracts c
		LEFT JOIN contract_signers s ON s.contract_id = c.id
		LEFT JOIN contract_documents d ON d.contract_id = c.id
		LEFT JOIN contract_fields f ON f.document_id = d.id
		GROUP BY c.id, c.title, c.status, c.created_at, c.sent_at, c.expires_at
		ORDER BY c.created_at DESC
	`).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
