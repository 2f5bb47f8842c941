package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/crm-contracts/internal/config"
	"github.com/nurpe/crm-contracts/internal/esign"
	"github.com/nurpe/crm-contracts/internal/model"
	"github.com/nurpe/crm-contracts/internal/placement"
	"github.com/nurpe/crm-contracts/internal/repository"
)

type FileReader interface {
	Read(originalPath string) ([]byte, error)
}

type SubmissionClient interface {
	CreateSubmission(ctx context.Context, req esign.SubmissionRequest) (*esign.SubmissionResponse, error)
	SigningLink(slug string) string
}

// SendService performs the one-shot draft-to-sent transition: it validates
// the contract, builds the provider submission from all persisted geometry,
// makes the single outbound call and persists the returned identifiers. All
// validation and file reads happen before the call; all writes happen after
// a successful response, so a failure anywhere leaves the contract draft.
type SendService struct {
	contracts ContractStore
	fields    FieldStore
	files     FileReader
	provider  SubmissionClient
	cfg       config.ESignConfig
	log       zerolog.Logger
}

func NewSendService(
	contracts ContractStore,
	fields FieldStore,
	files FileReader,
	provider SubmissionClient,
	cfg config.ESignConfig,
	log zerolog.Logger,
) *SendService {
	return &SendService{
		contracts: contracts,
		fields:    fields,
		files:     files,
		provider:  provider,
		cfg:       cfg,
		log:       log,
	}
}

type SendResult struct {
	SubmissionID   string
	SubmissionSlug string
	ExpiresAt      time.Time
	SigningLinks   map[int64]string
}

func (s *SendService) SendContract(ctx context.Context, contractID int64) (*SendResult, error) {
	contract, err := s.contracts.GetContract(ctx, contractID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: contract not found", ErrNotFound)
		}
		return nil, err
	}
	if contract.Status != model.ContractStatusDraft {
		return nil, ErrInvalidState
	}

	documents, err := s.contracts.ListDocuments(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if len(documents) == 0 {
		return nil, fmt.Errorf("%w: contract has no documents", ErrInvalidInput)
	}

	signers, err := s.contracts.ListSigners(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if len(signers) == 0 {
		return nil, fmt.Errorf("%w: contract has no signers", ErrInvalidInput)
	}
	if dupes := duplicateNames(signers); len(dupes) > 0 {
		return nil, fmt.Errorf("%w: signer names must be unique, duplicated: %s",
			ErrInvalidInput, strings.Join(dupes, ", "))
	}

	fields, err := s.fields.ListByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if unfielded := signersWithoutFields(signers, fields); len(unfielded) > 0 {
		return nil, fmt.Errorf("%w: signers without any field: %s",
			ErrInvalidInput, strings.Join(unfielded, ", "))
	}

	signerByID := make(map[int64]model.Signer, len(signers))
	for _, signer := range signers {
		signerByID[signer.ID] = signer
	}

	submissionDocs, err := s.buildDocuments(documents, fields, signerByID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expiresAt := now.AddDate(0, 0, contract.ExpirationDays)

	order := "random"
	if contract.LockOrder {
		order = "preserved"
	}

	req := esign.SubmissionRequest{
		Name:       contract.Title,
		Documents:  submissionDocs,
		Submitters: s.buildSubmitters(contract, signers),
		SendEmail:  s.cfg.SendEmail,
		Order:      order,
		ExpireAt:   expiresAt.Format(time.RFC3339),
		ReplyTo:    s.cfg.ReplyTo,
	}

	resp, err := s.provider.CreateSubmission(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	params := repository.MarkSentParams{
		ContractID:     contractID,
		SubmissionID:   strconv.FormatInt(resp.ID, 10),
		SubmissionSlug: resp.Slug,
		SentAt:         now,
		ExpiresAt:      expiresAt,
	}
	links := make(map[int64]string)
	for _, submitter := range resp.Submitters {
		signerID, err := strconv.ParseInt(submitter.ExternalID, 10, 64)
		if err != nil {
			s.log.Warn().Str("external_id", submitter.ExternalID).Msg("unmatched submitter in response")
			continue
		}
		if _, ok := signerByID[signerID]; !ok {
			s.log.Warn().Int64("signer_id", signerID).Msg("response submitter references unknown signer")
			continue
		}
		params.Submitters = append(params.Submitters, repository.SignerSubmitter{
			SignerID:      signerID,
			SubmitterID:   strconv.FormatInt(submitter.ID, 10),
			SubmitterSlug: submitter.Slug,
		})
		links[signerID] = s.provider.SigningLink(submitter.Slug)
	}

	if err := s.contracts.MarkSent(ctx, params); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, ErrInvalidState
		}
		return nil, err
	}

	s.log.Info().
		Int64("contract_id", contractID).
		Str("submission_id", params.SubmissionID).
		Time("expires_at", expiresAt).
		Msg("contract sent for signing")

	return &SendResult{
		SubmissionID:   params.SubmissionID,
		SubmissionSlug: resp.Slug,
		ExpiresAt:      expiresAt,
		SigningLinks:   links,
	}, nil
}

// buildDocuments base64-encodes every PDF and expands each signer-bound
// field into one area per page it covers. A multi-page field yields several
// areas under one field definition, so one signature requirement can span
// every page without duplicating rows.
func (s *SendService) buildDocuments(
	documents []model.Document,
	fields []model.FieldWithRefs,
	signerByID map[int64]model.Signer,
) ([]esign.SubmissionDocument, error) {
	fieldsByDocument := make(map[int64][]model.FieldWithRefs)
	for _, field := range fields {
		fieldsByDocument[field.DocumentID] = append(fieldsByDocument[field.DocumentID], field)
	}

	out := make([]esign.SubmissionDocument, 0, len(documents))
	for _, doc := range documents {
		data, err := s.files.Read(doc.OriginalPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorage, err)
		}

		submissionDoc := esign.SubmissionDocument{
			Name: doc.Filename,
			File: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data),
		}

		for _, field := range fieldsByDocument[doc.ID] {
			if field.SignerID == nil {
				continue
			}
			signer, ok := signerByID[*field.SignerID]
			if !ok {
				continue
			}

			pages, err := placement.ExpandPages(field.Pages)
			if err != nil {
				return nil, fmt.Errorf("%w: field %d has malformed pages %q: %v",
					ErrInvalidInput, field.ID, field.Pages, err)
			}

			pos := model.Position{
				X: field.Position.X + float64(field.HorizontalAdjust),
				Y: field.Position.Y + float64(field.VerticalAdjust),
			}
			rect, clamped := placement.Normalize(pos, field.Size)
			if clamped {
				s.log.Warn().
					Int64("field_id", field.ID).
					Str("document", doc.Filename).
					Msg("field geometry clamped to page bounds")
			}

			areas := make([]esign.Area, 0, len(pages))
			for _, page := range pages {
				areas = append(areas, esign.Area{
					X: rect.X, Y: rect.Y, W: rect.W, H: rect.H, Page: page,
				})
			}

			externalType := placement.ExternalFieldType(field.FieldType)
			submissionDoc.Fields = append(submissionDoc.Fields, esign.SubmissionField{
				Name:     fmt.Sprintf("%s_%d", externalType, field.ID),
				Type:     externalType,
				Role:     signer.Name,
				Required: true,
				Areas:    areas,
			})
		}

		out = append(out, submissionDoc)
	}
	return out, nil
}

func (s *SendService) buildSubmitters(contract *model.Contract, signers []model.Signer) []esign.Submitter {
	var out []esign.Submitter
	for _, signer := range signers {
		if signer.SignerType != model.SignerTypeSigner {
			continue
		}
		submitter := esign.Submitter{
			Role:       signer.Name,
			Email:      signer.Email,
			Name:       signer.Name,
			ExternalID: strconv.FormatInt(signer.ID, 10),
			SendEmail:  s.cfg.SendEmail,
			Message: esign.Message{
				Subject: renderTemplate(s.cfg.EmailSubject, signer.Name, contract.Title),
				Body:    renderTemplate(s.cfg.EmailBody, signer.Name, contract.Title),
			},
		}
		if signer.Phone != nil {
			submitter.Phone = *signer.Phone
		}
		out = append(out, submitter)
	}
	return out
}

func renderTemplate(template, name, title string) string {
	replaced := strings.ReplaceAll(template, "{{name}}", name)
	return strings.ReplaceAll(replaced, "{{title}}", title)
}

func duplicateNames(signers []model.Signer) []string {
	seen := make(map[string]int, len(signers))
	var dupes []string
	for _, signer := range signers {
		seen[signer.Name]++
		if seen[signer.Name] == 2 {
			dupes = append(dupes, signer.Name)
		}
	}
	return dupes
}

// signersWithoutFields lists the names of signing parties with no assigned
// field; a signer who has nothing to fill cannot be asked to sign.
func signersWithoutFields(signers []model.Signer, fields []model.FieldWithRefs) []string {
	counts := make(map[int64]int)
	for _, field := range fields {
		if field.SignerID != nil {
			counts[*field.SignerID]++
		}
	}
	var missing []string
	for _, signer := range signers {
		if signer.SignerType == model.SignerTypeSigner && counts[signer.ID] == 0 {
			missing = append(missing, signer.Name)
		}
	}
	return missing
}
