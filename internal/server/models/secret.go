// Package models defines server-side data models persisted in the database.
package models

import (
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/cryptox"
)

// ExposureState records what the last breach lookup concluded.
type ExposureState string

const (
	// ExposureUnknown means no lookup has succeeded yet.
	ExposureUnknown ExposureState = "unknown"
	// ExposureClean means the corpus had no entry for the secret.
	ExposureClean ExposureState = "clean"
	// ExposureExposed means the corpus reported ExposureCount > 0 hits.
	ExposureExposed ExposureState = "exposed"
)

// StateForCount maps a conclusive corpus hit count to its state.
func StateForCount(count int64) ExposureState {
	if count > 0 {
		return ExposureExposed
	}
	return ExposureClean
}

// Secret is one stored credential. Nonce, Ciphertext and Tag are the hex
// encoded parts of the sealed secret; they are never logged or listed.
type Secret struct {
	ID            string
	OwnerID       string
	Label         string
	AccountName   string
	Nonce         string
	Ciphertext    string
	Tag           string
	ExposureCount int64
	ExposureState ExposureState
	LastChecked   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Seal stores the encoded parts of sealed on the record.
func (s *Secret) Seal(sealed *cryptox.Sealed) {
	s.Nonce, s.Ciphertext, s.Tag = sealed.Encode()
}

// Sealed decodes the stored parts. A record missing any part is corrupt.
func (s *Secret) Sealed() (*cryptox.Sealed, error) {
	return cryptox.DecodeSealed(s.Nonce, s.Ciphertext, s.Tag)
}

// Metadata projects the record without its ciphertext.
func (s *Secret) Metadata() *SecretMetadata {
	return &SecretMetadata{
		ID:            s.ID,
		Label:         s.Label,
		AccountName:   s.AccountName,
		ExposureCount: s.ExposureCount,
		ExposureState: s.ExposureState,
		LastChecked:   s.LastChecked,
		CreatedAt:     s.CreatedAt,
	}
}

// SecretMetadata is the listing projection of a Secret.
type SecretMetadata struct {
	ID            string        `json:"id"`
	Label         string        `json:"label"`
	AccountName   string        `json:"account_name"`
	ExposureCount int64         `json:"exposure_count"`
	ExposureState ExposureState `json:"exposure_state"`
	LastChecked   *time.Time    `json:"last_checked,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
