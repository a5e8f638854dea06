package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrisonrobin/freetime/pkg/history"
)

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHistory(&buf, []history.Run{{
		ID:                "0f8fad5b-d9cb-469f-a165-70867728950e",
		CreatedAt:         time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC),
		Provider:          "google",
		From:              "2025-03-10",
		To:                "2025-03-14",
		FreeDuration:      30 * time.Hour,
		ProductivityRatio: 0.75,
	}}))
	out := buf.String()
	assert.Contains(t, out, "0f8fad5b  ")
	assert.Contains(t, out, "2025-03-10..2025-03-14")
	assert.Contains(t, out, "30:00")
	assert.Contains(t, out, "75.00%")

	buf.Reset()
	require.NoError(t, WriteHistory(&buf, nil))
	assert.Equal(t, "No stored runs.\n", buf.String())
}
