package memory

import (
	"context"
	"io"
	"testing"

	"github.com/RMahshie/noisemap/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableStreamsRows(t *testing.T) {
	table := NewTable([]string{"Q"},
		&repository.SourceRow{ID: 1, Values: map[string]any{"Q": 1.0}},
		&repository.SourceRow{ID: 2, Values: map[string]any{"Q": 2.0}},
	)

	var ids []int64
	for {
		row, err := table.Next(context.Background())
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ids = append(ids, row.ID)
	}
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestSingleRowColumns(t *testing.T) {
	table := SingleRow(3, map[string]any{"b": 1, "a": 2}, nil)
	assert.Equal(t, []string{"a", "b"}, table.Columns())
}

func TestTableHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := SingleRow(1, map[string]any{}, nil).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
