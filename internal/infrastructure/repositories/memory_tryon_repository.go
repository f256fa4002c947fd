package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/weirdqq-coder/troyyon/internal/domain/entities"
	domainrepos "github.com/weirdqq-coder/troyyon/internal/domain/repositories"
)

type MemoryTryOnRepository struct {
	records map[entities.TryOnRequestID]*domainrepos.TryOnRecord
	mu      sync.RWMutex
}

func NewMemoryTryOnRepository() domainrepos.TryOnRepository {
	return &MemoryTryOnRepository{
		records: make(map[entities.TryOnRequestID]*domainrepos.TryOnRecord),
	}
}

func (r *MemoryTryOnRepository) Save(ctx context.Context, request *entities.TryOnRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[request.ID()] = newPendingRecord(request)
	return nil
}

func (r *MemoryTryOnRepository) FindByID(ctx context.Context, id entities.TryOnRequestID) (*domainrepos.TryOnRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[id]
	if !exists {
		return nil, fmt.Errorf("request %s: %w", id, domainrepos.ErrNotFound)
	}

	copied := *record
	return &copied, nil
}

func (r *MemoryTryOnRepository) SaveResult(ctx context.Context, result *entities.TryOnResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.records[result.RequestID()]
	if !exists {
		return fmt.Errorf("request %s: %w", result.RequestID(), domainrepos.ErrNotFound)
	}

	applyResult(record, result)
	return nil
}

func (r *MemoryTryOnRepository) SaveFailure(ctx context.Context, id entities.TryOnRequestID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, exists := r.records[id]
	if !exists {
		return fmt.Errorf("request %s: %w", id, domainrepos.ErrNotFound)
	}

	applyFailure(record, reason)
	return nil
}

func newPendingRecord(request *entities.TryOnRequest) *domainrepos.TryOnRecord {
	return &domainrepos.TryOnRecord{
		RequestID:     request.ID(),
		SubjectFormat: request.SubjectImage().Format(),
		GarmentFormat: request.GarmentImage().Format(),
		Status:        domainrepos.StatusPending,
		CreatedAt:     request.CreatedAt().Unix(),
	}
}

func applyResult(record *domainrepos.TryOnRecord, result *entities.TryOnResult) {
	record.Status = domainrepos.StatusSucceeded
	record.ModelText = result.Text()
	record.SettledAt = time.Now().Unix()
	if result.HasImage() {
		record.ResultFormat = result.Image().Format()
		record.ResultBytes = len(result.Image().Data())
	}
}

func applyFailure(record *domainrepos.TryOnRecord, reason string) {
	record.Status = domainrepos.StatusFailed
	record.Error = reason
	record.SettledAt = time.Now().Unix()
}
