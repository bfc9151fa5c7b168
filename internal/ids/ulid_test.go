package ids

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULID(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := NewULID(now)
	require.NoError(t, err)
	assert.Len(t, id, 26)

	parsed, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(now), parsed.Time())
}

func TestNewULID_OrderedAndUnique(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	earlier, err := NewULID(base)
	require.NoError(t, err)
	later, err := NewULID(base.Add(time.Millisecond))
	require.NoError(t, err)
	assert.Less(t, earlier, later)

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id, err := NewULID(base)
		require.NoError(t, err)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 100)
}
