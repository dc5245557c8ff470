package xtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUTCNow(t *testing.T) {
	now := UTCNow()

	require.Equal(t, time.UTC, now.Location())
	require.WithinDuration(t, time.Now().UTC(), now, time.Second)
}
