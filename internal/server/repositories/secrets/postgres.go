package secrets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/common"
	"github.com/dmitrijs2005/vaultwatch/internal/dbx"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
)

const secretColumns = `id, owner_id, label, account_name, nonce, ciphertext, tag,
	exposure_count, exposure_state, last_checked, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new sealed record.
func (r *PostgresRepository) Create(ctx context.Context, s *models.Secret) error {
	query := `
		INSERT INTO secrets (id, owner_id, label, account_name, nonce, ciphertext, tag,
			exposure_count, exposure_state, last_checked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.OwnerID, s.Label, s.AccountName, s.Nonce, s.Ciphertext, s.Tag,
		s.ExposureCount, string(s.ExposureState), nullTime(s.LastChecked), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListByOwner returns the metadata projection of ownerID's records, newest first.
func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.SecretMetadata, error) {
	query := `
		SELECT id, label, account_name, exposure_count, exposure_state, last_checked, created_at
		FROM secrets
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select secrets: %w", err)
	}
	defer rows.Close()

	result := make([]*models.SecretMetadata, 0)
	for rows.Next() {
		var (
			item    models.SecretMetadata
			state   string
			checked sql.NullTime
		)
		if err := rows.Scan(&item.ID, &item.Label, &item.AccountName, &item.ExposureCount,
			&state, &checked, &item.CreatedAt); err != nil {
			return nil, err
		}
		item.ExposureState = models.ExposureState(state)
		item.LastChecked = timePtr(checked)
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetByOwner returns one full record if it exists and belongs to ownerID.
func (r *PostgresRepository) GetByOwner(ctx context.Context, ownerID, id string) (*models.Secret, error) {
	query := `SELECT ` + secretColumns + ` FROM secrets WHERE id = $1 AND owner_id = $2`

	s, err := scanSecret(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

// Replace overwrites every mutable field of an owned record.
func (r *PostgresRepository) Replace(ctx context.Context, s *models.Secret) error {
	query := `
		UPDATE secrets SET
			label = $3,
			account_name = $4,
			nonce = $5,
			ciphertext = $6,
			tag = $7,
			exposure_count = $8,
			exposure_state = $9,
			last_checked = $10,
			updated_at = $11
		WHERE id = $1 AND owner_id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		s.ID, s.OwnerID, s.Label, s.AccountName, s.Nonce, s.Ciphertext, s.Tag,
		s.ExposureCount, string(s.ExposureState), nullTime(s.LastChecked), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}

// DeleteByOwner removes an owned record.
func (r *PostgresRepository) DeleteByOwner(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM secrets WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}

// ListAll returns every record in insertion order.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]*models.Secret, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+secretColumns+` FROM secrets ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to select secrets: %w", err)
	}
	defer rows.Close()

	var result []*models.Secret
	for rows.Next() {
		s, err := scanSecret(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateExposure records a conclusive breach lookup for the sealed value
// identified by nonce. A record deleted or re-sealed since it was read
// matches no row and yields common.ErrorNotFound.
func (r *PostgresRepository) UpdateExposure(ctx context.Context, id, nonce string, count int64, state models.ExposureState, checkedAt time.Time) error {
	query := `
		UPDATE secrets SET exposure_count = $3, exposure_state = $4, last_checked = $5
		WHERE id = $1 AND nonce = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, nonce, count, string(state), checkedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.ExpectOne(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSecret(row scanner) (*models.Secret, error) {
	var (
		s       models.Secret
		state   string
		checked sql.NullTime
	)
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Label, &s.AccountName, &s.Nonce, &s.Ciphertext, &s.Tag,
		&s.ExposureCount, &state, &checked, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.ExposureState = models.ExposureState(state)
	s.LastChecked = timePtr(checked)
	return &s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
