package client

import (
	"audit-service/internal/models"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// AllRegions disables the region constraint of a review filter.
const AllRegions = "ALL"

var ErrOperationPending = errors.New("an operation on this report is still pending")

type ReviewAPI interface {
	ListAll(ctx context.Context) ([]*models.AuditRecord, error)
	Resolve(ctx context.Context, id string) (*models.AuditRecord, error)
	Delete(ctx context.Context, id string) error
}

// ReviewFilter narrows the board. The three conditions are combined with AND.
type ReviewFilter struct {
	Region       string
	CriticalOnly bool
	Search       string
}

type pendingOp int

const (
	pendingResolve pendingOp = iota + 1
	pendingDelete
)

// ReviewBoard is the supervisor's local copy of every report.
// Views are computed from the cache; only Load, Resolve and Delete touch the network.
// Resolve and Delete show their effect at once and roll it back if the server refuses.
type ReviewBoard struct {
	mu      sync.RWMutex
	api     ReviewAPI
	records []*models.AuditRecord
	pending map[string]pendingOp
	filter  ReviewFilter
}

func NewReviewBoard(api ReviewAPI) *ReviewBoard {
	return &ReviewBoard{
		api:     api,
		pending: make(map[string]pendingOp),
		filter:  ReviewFilter{Region: AllRegions},
	}
}

func (b *ReviewBoard) Load(ctx context.Context) error {
	records, err := b.api.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to load reports: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = records
	return nil
}

func (b *ReviewBoard) SetFilter(filter ReviewFilter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filter = filter
}

func (b *ReviewBoard) Filter() ReviewFilter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// View returns the filtered reports in server order, with pending operations applied.
func (b *ReviewBoard) View() []*models.AuditRecord {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*models.AuditRecord, 0, len(b.records))
	for _, r := range b.visible() {
		if b.filter.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Counts returns the number of visible reports per region, ignoring the filter.
func (b *ReviewBoard) Counts() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := make(map[string]int, len(models.MonitoredStates))
	for _, state := range models.MonitoredStates {
		counts[state] = 0
	}
	for _, r := range b.visible() {
		counts[r.State]++
	}
	return counts
}

func (b *ReviewBoard) IsPending(id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.pending[id]
	return ok
}

func (b *ReviewBoard) Resolve(ctx context.Context, id string) (*models.AuditRecord, error) {
	if err := b.begin(id, pendingResolve); err != nil {
		return nil, err
	}

	updated, err := b.api.Resolve(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report %s: %w", id, err)
	}
	if i := b.indexOf(id); i >= 0 && updated != nil {
		b.records[i] = updated
	}
	return updated, nil
}

func (b *ReviewBoard) Delete(ctx context.Context, id string) error {
	if err := b.begin(id, pendingDelete); err != nil {
		return err
	}

	err := b.api.Delete(ctx, id)

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, id)
	if err != nil {
		return fmt.Errorf("failed to delete report %s: %w", id, err)
	}
	if i := b.indexOf(id); i >= 0 {
		b.records = append(b.records[:i:i], b.records[i+1:]...)
	}
	return nil
}

func (b *ReviewBoard) begin(id string, op pendingOp) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexOf(id) < 0 {
		return fmt.Errorf("report %s: %w", id, models.ErrNotFound)
	}
	if _, busy := b.pending[id]; busy {
		return ErrOperationPending
	}
	b.pending[id] = op
	return nil
}

// visible applies the pending overlay. Callers hold the lock.
func (b *ReviewBoard) visible() []*models.AuditRecord {
	out := make([]*models.AuditRecord, 0, len(b.records))
	for _, r := range b.records {
		switch b.pending[r.ID.Hex()] {
		case pendingDelete:
			continue
		case pendingResolve:
			resolved := *r
			resolved.ConditionKey = models.ResolvedConditionKey
			resolved.ActionRequired = models.ResolvedActionText
			out = append(out, &resolved)
		default:
			out = append(out, r)
		}
	}
	return out
}

func (b *ReviewBoard) indexOf(id string) int {
	for i, r := range b.records {
		if r.ID.Hex() == id {
			return i
		}
	}
	return -1
}

func (f ReviewFilter) matches(r *models.AuditRecord) bool {
	if f.Region != "" && !strings.EqualFold(f.Region, AllRegions) {
		if r.State != f.Region && !r.BroadcastToAll {
			return false
		}
	}
	if f.CriticalOnly && !r.IsCritical() {
		return false
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(r.UtilityName), term) &&
			!strings.Contains(strings.ToLower(r.InspectorName), term) {
			return false
		}
	}
	return true
}
