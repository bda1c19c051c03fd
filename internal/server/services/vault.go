package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/common"
	"github.com/dmitrijs2005/vaultwatch/internal/cryptox"
	"github.com/dmitrijs2005/vaultwatch/internal/logging"
	"github.com/dmitrijs2005/vaultwatch/internal/server/breach"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
	"github.com/dmitrijs2005/vaultwatch/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Cipher seals and opens secret values.
type Cipher interface {
	Encrypt(plaintext string) (*cryptox.Sealed, error)
	Decrypt(s *cryptox.Sealed) (string, error)
}

// VaultService stores credentials sealed at rest and tracks their exposure in
// the breach corpus. Every owner-facing call is scoped by the owner id taken
// from a verified token.
type VaultService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	cipher      Cipher
	oracle      breach.Checker
	logger      logging.Logger
	now         func() time.Time
}

// NewVaultService wires the vault to its storage, cipher and breach oracle.
func NewVaultService(db *sql.DB, m repomanager.RepositoryManager, cipher Cipher, oracle breach.Checker, logger logging.Logger) *VaultService {
	return &VaultService{
		db:          db,
		repomanager: m,
		cipher:      cipher,
		oracle:      oracle,
		logger:      logger.With("module", "vault"),
		now:         time.Now,
	}
}

// Create seals secret, looks it up once in the breach corpus and stores the
// record. An inconclusive lookup stores the record as unknown rather than
// failing.
func (s *VaultService) Create(ctx context.Context, ownerID, label, accountName, secret string) (*models.SecretMetadata, error) {
	ownerID, label, accountName = strings.TrimSpace(ownerID), strings.TrimSpace(label), strings.TrimSpace(accountName)
	if err := validateRecord(ownerID, label, accountName, secret); err != nil {
		return nil, err
	}

	sealed, err := s.cipher.Encrypt(secret)
	if err != nil {
		return nil, fmt.Errorf("encrypt secret: %w", err)
	}

	now := s.now().UTC()
	rec := &models.Secret{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Label:         label,
		AccountName:   accountName,
		ExposureState: models.ExposureUnknown,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	rec.Seal(sealed)
	s.applyCheck(ctx, rec, secret)

	if err := s.repomanager.Secrets(s.db).Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("error creating secret: %w", err)
	}

	s.logger.Info(ctx, "secret stored", "id", rec.ID, "owner", ownerID, "state", rec.ExposureState)
	return rec.Metadata(), nil
}

// List returns the owner's records without their sealed values.
func (s *VaultService) List(ctx context.Context, ownerID string) ([]*models.SecretMetadata, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner is required", common.ErrorValidation)
	}
	items, err := s.repomanager.Secrets(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("error listing secrets: %w", err)
	}
	return items, nil
}

// Reveal decrypts one owned record.
func (s *VaultService) Reveal(ctx context.Context, ownerID, id string) (string, error) {
	rec, err := s.get(ctx, ownerID, id)
	if err != nil {
		return "", err
	}

	sealed, err := rec.Sealed()
	if err != nil {
		s.logger.Error(ctx, "stored record is corrupt", "id", id, "error", err)
		return "", err
	}
	plaintext, err := s.cipher.Decrypt(sealed)
	if err != nil {
		s.logger.Error(ctx, "stored record failed to decrypt", "id", id, "error", err)
		return "", err
	}
	return plaintext, nil
}

// Update replaces every field of an owned record. The secret is sealed with
// a fresh nonce and its exposure is looked up again.
func (s *VaultService) Update(ctx context.Context, ownerID, id, label, accountName, secret string) (*models.SecretMetadata, error) {
	label, accountName = strings.TrimSpace(label), strings.TrimSpace(accountName)
	if err := validateRecord(ownerID, label, accountName, secret); err != nil {
		return nil, err
	}

	rec, err := s.get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	sealed, err := s.cipher.Encrypt(secret)
	if err != nil {
		return nil, fmt.Errorf("encrypt secret: %w", err)
	}

	rec.Label = label
	rec.AccountName = accountName
	rec.Seal(sealed)
	rec.ExposureCount = 0
	rec.ExposureState = models.ExposureUnknown
	rec.LastChecked = nil
	rec.UpdatedAt = s.now().UTC()
	s.applyCheck(ctx, rec, secret)

	if err := s.repomanager.Secrets(s.db).Replace(ctx, rec); err != nil {
		return nil, fmt.Errorf("error updating secret: %w", err)
	}
	return rec.Metadata(), nil
}

// Delete removes an owned record. Missing and foreign records are both
// reported as common.ErrorNotFound.
func (s *VaultService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}
	if err := s.repomanager.Secrets(s.db).DeleteByOwner(ctx, ownerID, id); err != nil {
		return err
	}
	s.logger.Info(ctx, "secret deleted", "id", id, "owner", ownerID)
	return nil
}

// Check looks secret up in the breach corpus without storing anything.
func (s *VaultService) Check(ctx context.Context, secret string) (breach.Result, error) {
	if secret == "" {
		return breach.Result{}, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	return s.oracle.Check(ctx, secret), nil
}

// ListAll returns every stored record regardless of owner. It serves the
// revalidation scheduler and the backup exporter, never a client.
func (s *VaultService) ListAll(ctx context.Context) ([]*models.Secret, error) {
	return s.repomanager.Secrets(s.db).ListAll(ctx)
}

// RevalidateAndUpdate records a conclusive lookup result for the sealed value
// of id identified by nonce. Applying the same count twice leaves the record
// in the same state. If the record was deleted or replaced after the caller
// read it, nothing is written and common.ErrorNotFound is returned.
func (s *VaultService) RevalidateAndUpdate(ctx context.Context, id, nonce string, count int64) error {
	if count < 0 {
		return fmt.Errorf("%w: negative exposure count %d", common.ErrorValidation, count)
	}
	return s.repomanager.Secrets(s.db).UpdateExposure(ctx, id, nonce, count, models.StateForCount(count), s.now().UTC())
}

func (s *VaultService) get(ctx context.Context, ownerID, id string) (*models.Secret, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Secrets(s.db).GetByOwner(ctx, ownerID, id)
}

// applyCheck stores a conclusive lookup on rec and leaves it untouched otherwise.
func (s *VaultService) applyCheck(ctx context.Context, rec *models.Secret, secret string) {
	res := s.oracle.Check(ctx, secret)
	if !res.Conclusive() {
		s.logger.Warn(ctx, "breach lookup inconclusive, stored as unknown", "id", rec.ID, "error", res.Err)
		return
	}
	checked := s.now().UTC()
	rec.ExposureCount = res.Count
	rec.ExposureState = models.StateForCount(res.Count)
	rec.LastChecked = &checked
}

func validateRecord(ownerID, label, accountName, secret string) error {
	switch {
	case strings.TrimSpace(ownerID) == "":
		return fmt.Errorf("%w: owner is required", common.ErrorValidation)
	case label == "":
		return fmt.Errorf("%w: label is required", common.ErrorValidation)
	case accountName == "":
		return fmt.Errorf("%w: account name is required", common.ErrorValidation)
	case secret == "":
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	return nil
}
