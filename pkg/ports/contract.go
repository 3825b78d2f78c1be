package ports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunJournalContract runs a suite of tests verifying that a RunJournal
// implementation adheres to the interface contract. Adapters (file, redis)
// call this from their own tests.
func RunJournalContract(t *testing.T, journal RunJournal) {
	ctx := context.Background()
	key := "contract-" + time.Now().Format("20060102150405")

	t.Run("Record and Summary", func(t *testing.T) {
		require.NoError(t, journal.Record(ctx, key+"_1", true, ""))
		require.NoError(t, journal.Record(ctx, key+"_2", false, "submit failed"))

		summary, err := journal.Summary(ctx)
		require.NoError(t, err)
		assert.Equal(t, true, summary[key+"_1"])
		assert.Equal(t, false, summary[key+"_2"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, journal.Record(ctx, key+"_3", false, "timeout"))
		require.NoError(t, journal.Record(ctx, key+"_3", true, ""))

		summary, err := journal.Summary(ctx)
		require.NoError(t, err)
		assert.Equal(t, true, summary[key+"_3"])
	})
}
