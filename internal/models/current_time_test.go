package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCurrentTimeModel(t *testing.T) {
	ts := time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC)

	m := NewCurrentTimeModel(ts, nil)
	assert.Equal(t, int64(1700000000000), m.Time)
	assert.Equal(t, "2023-11-14T22:13:20Z", m.ReadableTime)

	boston, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	m = NewCurrentTimeModel(ts, boston)
	assert.Equal(t, int64(1700000000000), m.Time, "epoch milliseconds do not depend on the zone")
	assert.Equal(t, "2023-11-14T17:13:20-05:00", m.ReadableTime)
}
