package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/panevka/nhsmongifyer/pkg/logging"
)

func TestFromContextWithoutLogger(t *testing.T) {
	logger := logging.FromContext(context.Background())
	assert.NotNil(t, logger)
	// discarding logger must not panic
	logger.Info().Msg("dropped")
}

func TestContextFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := tl.Context()
	ctx = logging.WithRunID(ctx, "run-1")
	ctx = logging.WithPartition(ctx, "07", "03", 2025)
	ctx = logging.WithStage(ctx, "harvest")
	ctx = logging.WithFields(ctx, map[string]any{"page": 4, "limit": 25})

	logging.Ctx(ctx).Info().Msg("saved page")

	assert.Equal(t, "run-1", logging.RunID(ctx))
	tl.AssertContains(t, `"run_id":"run-1"`)
	tl.AssertContains(t, `"branch":"07"`)
	tl.AssertContains(t, `"service":"03"`)
	tl.AssertContains(t, `"year":2025`)
	tl.AssertContains(t, `"stage":"harvest"`)
	tl.AssertContains(t, `"page":4`)
}

func TestRunIDMissing(t *testing.T) {
	assert.Equal(t, "", logging.RunID(context.Background()))
}
