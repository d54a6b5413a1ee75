package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordUsage_Upserts(t *testing.T) {
	db, err := InitDB("", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)

	require.NoError(t, RecordUsage(db, 3, "worker", "2025-01-02", 1, 0))
	require.NoError(t, RecordUsage(db, 3, "worker", "2025-01-02", 1, 2))
	require.NoError(t, RecordUsage(db, 3, "worker", "2025-01-03", 0, 1))
	require.NoError(t, RecordUsage(db, 1, "coordinator", "2025-01-02", 5, 0))

	usage, err := UsageFor(db, 3)
	require.NoError(t, err)
	require.Len(t, usage, 2)

	assert.Equal(t, "2025-01-03", usage[0].Date)
	assert.Equal(t, 1, usage[0].DetailCount)
	assert.Equal(t, "2025-01-02", usage[1].Date)
	assert.Equal(t, 2, usage[1].RenderCount)
	assert.Equal(t, 2, usage[1].DetailCount)
}
