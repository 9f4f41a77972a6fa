package repository

import (
	"audit-service/internal/models"
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryAccountRepository keeps accounts in process memory. Used by serve --in-memory.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

func NewMemoryAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{accounts: make(map[string]models.Account)}
}

func (r *MemoryAccountRepository) CreateAccount(_ context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[account.Username]; ok {
		return models.ErrDuplicateUsername
	}
	r.accounts[account.Username] = *account
	return nil
}

func (r *MemoryAccountRepository) GetAccountByUsername(_ context.Context, username string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.accounts[username]
	if !ok {
		return nil, fmt.Errorf("account %q: %w", username, models.ErrNotFound)
	}
	return &a, nil
}

func (r *MemoryAccountRepository) ListAccounts(_ context.Context) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryAccountRepository) DeleteAllAccounts(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.accounts))
	r.accounts = make(map[string]models.Account)
	return n, nil
}

// MemoryAuditRecordRepository mirrors the Mongo repository's matching and ordering rules in memory.
type MemoryAuditRecordRepository struct {
	mu      sync.RWMutex
	records map[primitive.ObjectID]models.AuditRecord
}

func NewMemoryAuditRecordRepository() *MemoryAuditRecordRepository {
	return &MemoryAuditRecordRepository{records: make(map[primitive.ObjectID]models.AuditRecord)}
}

func (r *MemoryAuditRecordRepository) CreateRecord(_ context.Context, record *models.AuditRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	r.records[record.ID] = *record
	return nil
}

func (r *MemoryAuditRecordRepository) FindRecords(_ context.Context, criteria models.RecordCriteria) ([]*models.AuditRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.AuditRecord, 0)
	for _, rec := range r.records {
		if matchesCriteria(&rec, criteria) {
			rec := rec
			out = append(out, &rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.Hex() > out[j].ID.Hex()
	})
	return out, nil
}

func (r *MemoryAuditRecordRepository) GetRecordByID(_ context.Context, id string) (*models.AuditRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	rec, ok := r.records[oid]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	return &rec, nil
}

func (r *MemoryAuditRecordRepository) UpdateRecordFields(_ context.Context, id string, patch models.RecordPatch) (*models.AuditRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	rec, ok := r.records[oid]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	if patch.ConditionKey != nil {
		rec.ConditionKey = *patch.ConditionKey
	}
	if patch.ActionRequired != nil {
		rec.ActionRequired = *patch.ActionRequired
	}
	r.records[oid] = rec
	return &rec, nil
}

func (r *MemoryAuditRecordRepository) DeleteRecord(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	if _, ok := r.records[oid]; !ok {
		return fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	delete(r.records, oid)
	return nil
}

func matchesCriteria(rec *models.AuditRecord, c models.RecordCriteria) bool {
	if c.State != "" && rec.State != c.State {
		return false
	}
	if c.InspectorName != "" && !containsFold(rec.InspectorName, c.InspectorName) {
		return false
	}
	if c.UtilityName != "" && !containsFold(rec.UtilityName, c.UtilityName) {
		return false
	}
	if c.AuthorID != "" && rec.AuthorID != c.AuthorID {
		return false
	}
	if c.CriticalOnly && rec.ConditionKey != models.CriticalConditionKey {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
