package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/common"
	"github.com/dmitrijs2005/vaultwatch/internal/dbx"
	"github.com/dmitrijs2005/vaultwatch/internal/server/breach"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
	refreshtokensrepo "github.com/dmitrijs2005/vaultwatch/internal/server/repositories/refreshtokens"
	secretsrepo "github.com/dmitrijs2005/vaultwatch/internal/server/repositories/secrets"
	usersrepo "github.com/dmitrijs2005/vaultwatch/internal/server/repositories/users"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

type fakeUsersRepo struct {
	createOut *models.User
	createErr error
	created   *models.User

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.created = u
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	u.ID = "generated"
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return f.GetUserByLogin(ctx, id)
}

type fakeRefreshRepo struct {
	findOut *models.RefreshToken
	findErr error

	delErr error

	createErr error
	created   []string

	expiredCalls int
}

func (f *fakeRefreshRepo) Create(ctx context.Context, userID string, token string, validity time.Duration) error {
	if f.createErr == nil {
		f.created = append(f.created, token)
	}
	return f.createErr
}

func (f *fakeRefreshRepo) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.findOut, nil
}

func (f *fakeRefreshRepo) Delete(ctx context.Context, token string) error {
	return f.delErr
}

func (f *fakeRefreshRepo) DeleteExpired(ctx context.Context, userID string, now time.Time) (int64, error) {
	f.expiredCalls++
	return 0, nil
}

// memSecrets is an in-memory secrets repository keyed by record id.
type memSecrets struct {
	mu      sync.Mutex
	records map[string]models.Secret
	failAll error
}

func newMemSecrets() *memSecrets {
	return &memSecrets{records: make(map[string]models.Secret)}
}

func (m *memSecrets) Create(ctx context.Context, s *models.Secret) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return m.failAll
	}
	m.records[s.ID] = *s
	return nil
}

func (m *memSecrets) ListByOwner(ctx context.Context, ownerID string) ([]*models.SecretMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	out := make([]*models.SecretMetadata, 0)
	for _, r := range m.records {
		if r.OwnerID == ownerID {
			out = append(out, r.Metadata())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSecrets) GetByOwner(ctx context.Context, ownerID, id string) (*models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	return &r, nil
}

func (m *memSecrets) Replace(ctx context.Context, s *models.Secret) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[s.ID]
	if !ok || r.OwnerID != s.OwnerID {
		return common.ErrorNotFound
	}
	m.records[s.ID] = *s
	return nil
}

func (m *memSecrets) DeleteByOwner(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.OwnerID != ownerID {
		return common.ErrorNotFound
	}
	delete(m.records, id)
	return nil
}

func (m *memSecrets) ListAll(ctx context.Context) ([]*models.Secret, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	out := make([]*models.Secret, 0, len(m.records))
	for _, r := range m.records {
		r := r
		out = append(out, &r)
	}
	return out, nil
}

func (m *memSecrets) UpdateExposure(ctx context.Context, id, nonce string, count int64, state models.ExposureState, checkedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok || r.Nonce != nonce {
		return common.ErrorNotFound
	}
	r.ExposureCount = count
	r.ExposureState = state
	r.LastChecked = &checkedAt
	m.records[id] = r
	return nil
}

func (m *memSecrets) get(id string) models.Secret {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	s *memSecrets
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error           { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return m.r }
func (m *fakeRepoManager) Secrets(db dbx.DBTX) secretsrepo.Repository             { return m.s }

// fakeOracle answers every lookup with result and records what it was asked.
type fakeOracle struct {
	mu      sync.Mutex
	result  breach.Result
	queries []string
}

func (f *fakeOracle) Check(ctx context.Context, secret string) breach.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, secret)
	return f.result
}
