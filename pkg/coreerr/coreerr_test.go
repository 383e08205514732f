package coreerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("decoding change set: %w", InvalidInput)
	assert.True(t, Is(err, InvalidInput))
	assert.False(t, Is(err, StorageTransient))
}

func TestIs_DistinctSentinels(t *testing.T) {
	sentinels := []error{InvalidInput, PostConditionFailed, StorageTransient, Conflict, Unauthorized, Forbidden, NotFound}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				assert.True(t, errors.Is(a, b))
			} else {
				assert.False(t, errors.Is(a, b), "%v should not be %v", a, b)
			}
		}
	}
}
