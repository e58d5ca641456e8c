package messages

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ftpchat/internal/client/models"
)

// Repository is the append-only message history.
type Repository interface {
	// Append stores a new record. Appending an existing id fails.
	Append(ctx context.Context, rec models.MessageRecord) error

	// UpdateState replaces the delivery state of a stored record. Unknown ids
	// yield common.ErrorNotFound. Once a record is in a final state only
	// Displayed may still be written; anything else yields ErrLifecycleEnded.
	UpdateState(ctx context.Context, id string, state models.DeliveryState) error

	// Get returns one record or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.MessageRecord, error)

	// List returns all records in append order.
	List(ctx context.Context) ([]models.MessageRecord, error)
}

var ErrLifecycleEnded = errors.New("message lifecycle already ended")

func checkTransition(id string, current, next models.DeliveryState) error {
	if current.Final() && next != models.StateDisplayed {
		return fmt.Errorf("update %s to %s: %w (%s)", id, next, ErrLifecycleEnded, current)
	}
	return nil
}
