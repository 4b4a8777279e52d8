package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClockNowIsUTCMicroseconds(t *testing.T) {
	t.Parallel()

	before := time.Now().UTC().Add(-time.Second)
	got := New().Now()
	after := time.Now().UTC().Add(time.Second)

	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.After(before) && got.Before(after), "got %v", got)
	assert.Zero(t, got.Nanosecond()%int(time.Microsecond))
}

func TestClockNowNonDecreasing(t *testing.T) {
	t.Parallel()

	clk := New()
	first := clk.Now()
	assert.False(t, clk.Now().Before(first))
}

func TestFrozen(t *testing.T) {
	t.Parallel()

	tokyo := time.FixedZone("JST", 9*60*60)
	at := time.Date(2024, 11, 5, 21, 0, 0, 123456789, tokyo)
	clk := NewFrozen(at)

	want := time.Date(2024, 11, 5, 12, 0, 0, 123456000, time.UTC)
	assert.Equal(t, want, clk.Now())
	assert.Equal(t, clk.Now(), clk.Now())
}
