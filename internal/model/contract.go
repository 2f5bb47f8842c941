package model

import "time"

type ContractStatus string

const (
	ContractStatusDraft     ContractStatus = "draft"
	ContractStatusSent      ContractStatus = "sent"
	ContractStatusCompleted ContractStatus = "completed"
	ContractStatusDeclined  ContractStatus = "declined"
	ContractStatusExpired   ContractStatus = "expired"
)

type Contract struct {
	ID             int64
	Title          string
	Status         ContractStatus
	LockOrder      bool
	ExpirationDays int
	SubmissionID   *string
	SubmissionSlug *string
	SentAt         *time.Time
	ExpiresAt      *time.Time
	CreatedAt      time.Time
}

type Document struct {
	ID           int64
	ContractID   int64
	Filename     string
	OriginalPath string
	SortOrder    int
}

type SignerStatus string

const (
	SignerStatusPending   SignerStatus = "pending"
	SignerStatusSent      SignerStatus = "sent"
	SignerStatusCompleted SignerStatus = "completed"
	SignerStatusDeclined  SignerStatus = "declined"
)

// SignerTypeSigner marks a party who must place at least one field worth of
// ink; other types (e.g. "cc") only receive the finished document.
const SignerTypeSigner = "signer"

type Signer struct {
	ID            int64
	ContractID    int64
	Name          string
	Email         string
	Phone         *string
	SignerType    string
	SortOrder     int
	Status        SignerStatus
	SubmitterID   *string
	SubmitterSlug *string
}
