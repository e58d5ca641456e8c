package delivery

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
	"github.com/dmitrijs2005/ftpchat/internal/common"
	"github.com/dmitrijs2005/ftpchat/internal/logging"
)

// ErrUnknownMessage is returned for notifications about untracked ids.
var ErrUnknownMessage = errors.New("unknown message")

// Notification reports a new state for one message.
type Notification struct {
	MessageID string
	State     models.DeliveryState
}

// Hooks receive the side effects of state transitions. They are called with
// the record's lock held and must not feed notifications for the same
// message back into the Machine synchronously.
type Hooks interface {
	// Marker updates the status marker shown next to a message.
	Marker(ctx context.Context, rec models.MessageRecord, state models.DeliveryState)
	// Notice surfaces a short transient message.
	Notice(ctx context.Context, rec models.MessageRecord, text string)
	// Finalize replaces the in-progress indicator of an inbound attachment
	// with its final content. Called at most once per message.
	Finalize(ctx context.Context, rec models.MessageRecord)
}

// Recorder persists state changes.
type Recorder interface {
	UpdateState(ctx context.Context, id string, state models.DeliveryState) error
}

type entry struct {
	mu        sync.Mutex
	rec       models.MessageRecord
	ended     bool
	finalized bool
}

type Machine struct {
	hooks    Hooks
	recorder Recorder
	log      logging.Logger

	mu      sync.RWMutex
	entries map[string]*entry
}

func NewMachine(hooks Hooks, recorder Recorder, log logging.Logger) *Machine {
	return &Machine{
		hooks:    hooks,
		recorder: recorder,
		log:      log.With("module", "delivery"),
		entries:  make(map[string]*entry),
	}
}

// Track starts following rec. Tracking an id twice keeps the first record.
func (m *Machine) Track(rec models.MessageRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[rec.ID]; ok {
		return
	}
	m.entries[rec.ID] = &entry{rec: rec, ended: rec.State.Final()}
}

// Record returns a snapshot of a tracked record.
func (m *Machine) Record(id string) (models.MessageRecord, bool) {
	e := m.lookup(id)
	if e == nil {
		return models.MessageRecord{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rec, true
}

func (m *Machine) lookup(id string) *entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[id]
}

// Apply performs one transition.
func (m *Machine) Apply(ctx context.Context, n Notification) error {
	e := m.lookup(n.MessageID)
	if e == nil {
		m.log.Warn(ctx, "state for unknown message dropped", "id", n.MessageID, "state", n.State)
		return fmt.Errorf("%w: %s", ErrUnknownMessage, n.MessageID)
	}

	if !n.State.Known() {
		m.log.Warn(ctx, "unrecognized state ignored", "id", n.MessageID, "state", n.State)
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ended && n.State != models.StateDisplayed {
		m.log.Debug(ctx, "state after end of lifecycle dropped", "id", n.MessageID, "current", e.rec.State, "state", n.State)
		return nil
	}

	e.rec.State = n.State
	if m.recorder != nil {
		if err := m.recorder.UpdateState(ctx, n.MessageID, n.State); err != nil {
			m.log.Error(ctx, "persist state", "id", n.MessageID, "state", n.State, "error", err)
		}
	}

	if e.ended {
		// only Displayed gets here
		m.hooks.Marker(ctx, e.rec, n.State)
		return nil
	}

	switch n.State {
	case models.StateQueued, models.StateInProgress, models.StateDelivered,
		models.StateDeliveredToPeer, models.StateDisplayed:
		m.hooks.Marker(ctx, e.rec, n.State)

	case models.StateNotDelivered:
		e.ended = true
		m.hooks.Marker(ctx, e.rec, n.State)
		m.hooks.Notice(ctx, e.rec, common.NoticeNotDelivered)

	case models.StateTransferInProgress:
		m.hooks.Notice(ctx, e.rec, common.NoticeTransferInProcess)

	case models.StateTransferError:
		e.ended = true
		notice := common.NoticeUploadFailed
		if e.rec.Direction == models.Incoming {
			notice = common.NoticeDownloadFailed
		}
		m.hooks.Notice(ctx, e.rec, notice)

	case models.StateTransferDone:
		e.ended = true
		if e.rec.Direction == models.Incoming && !e.finalized {
			e.finalized = true
			m.hooks.Finalize(ctx, e.rec)
			return nil
		}
		m.hooks.Marker(ctx, e.rec, n.State)
	}

	return nil
}

// Run applies notifications from ch in order until ch is closed (nil is
// returned) or ctx is done.
func (m *Machine) Run(ctx context.Context, ch <-chan Notification) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			// unknown ids are already logged by Apply
			_ = m.Apply(ctx, n)
		}
	}
}
