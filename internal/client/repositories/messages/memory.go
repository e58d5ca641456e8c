package messages

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/common"
)

type MemoryRepository struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]*models.MessageRecord
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*models.MessageRecord)}
}

func (r *MemoryRepository) Append(ctx context.Context, rec models.MessageRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[rec.ID]; ok {
		return fmt.Errorf("append %s: %w: duplicate id", rec.ID, common.ErrorInvalidArgument)
	}
	r.byID[rec.ID] = cloneRecord(&rec)
	r.order = append(r.order, rec.ID)
	return nil
}

func (r *MemoryRepository) UpdateState(ctx context.Context, id string, state models.DeliveryState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, common.ErrorNotFound)
	}
	if err := checkTransition(id, rec.State, state); err != nil {
		return err
	}
	rec.State = state
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.MessageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, common.ErrorNotFound)
	}
	return cloneRecord(rec), nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]models.MessageRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.MessageRecord, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *cloneRecord(r.byID[id]))
	}
	return out, nil
}

func cloneRecord(rec *models.MessageRecord) *models.MessageRecord {
	c := *rec
	if rec.Ref != nil {
		ref := *rec.Ref
		c.Ref = &ref
	}
	return &c
}
