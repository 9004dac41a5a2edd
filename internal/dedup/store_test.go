package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tollhub/pipeline/internal/model"
)

func TestNewStore_UnreachableRedisIsTransient(t *testing.T) {
	_, err := NewStore("127.0.0.1:1", "", 0, time.Hour)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrTransient)
}

func TestKey_IncludesAgencyAndEventID(t *testing.T) {
	got := key(model.AgencyID("etoll"), "evt-1")
	assert.Equal(t, "dedup:event:etoll:evt-1", got)
}
