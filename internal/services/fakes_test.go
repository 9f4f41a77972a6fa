package services

import (
	"audit-service/internal/models"
	"audit-service/internal/repository"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu       sync.Mutex
	resolved []*models.AuditRecord
	err      error
}

func (f *fakeNotifier) NotifyResolved(_ context.Context, record *models.AuditRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolved = append(f.resolved, record)
	return f.err
}

func storedCount(t *testing.T, repo repository.IAuditRecordRepository) int {
	t.Helper()
	records, err := repo.FindRecords(context.Background(), models.RecordCriteria{})
	require.NoError(t, err)
	return len(records)
}
