package quote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"goflare.io/ignite"

	"github.com/skyvoyage/travelpay/models"
)

// Quotes handed to callers must not alias the pooled scratch object, or a
// pool reset could wipe a quote still in use.
func TestPooledQuoteIsScratchOnly(t *testing.T) {
	repoIface, err := NewRepository(nil, zap.NewNop(), nil, ignite.NewManager())
	require.NoError(t, err)
	r := repoIface.(*repository)

	scratch, release, err := r.getFromPool(context.Background())
	require.NoError(t, err)

	scratch.ID = "q-1"
	scratch.Title = "Pacific cruise"

	out := models.NewQuote()
	*out = *scratch
	release()

	*scratch = models.Quote{}

	assert.NotSame(t, scratch, out)
	assert.Equal(t, "q-1", out.ID)
	assert.Equal(t, "Pacific cruise", out.Title)
}
