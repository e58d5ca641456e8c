package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinels_MatchThroughWrapping(t *testing.T) {
	for _, sentinel := range []error{ErrorNotFound, ErrorInternal, ErrorInvalidArgument} {
		wrapped := fmt.Errorf("ctx: %w", sentinel)
		assert.True(t, errors.Is(wrapped, sentinel))
	}
	assert.False(t, errors.Is(ErrorNotFound, ErrorInternal))
}
