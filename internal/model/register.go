package model

import "time"

// ContractRegisterRow is one line of the contracts register export.
type ContractRegisterRow struct {
	ID          int64
	Title       string
	Status      string
	CreatedAt   time.Time
	SentAt      *time.Time
	ExpiresAt   *time.Time
	SignerCount int64
	FieldCount  int64
}
