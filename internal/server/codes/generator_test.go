package codes

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fourDigits = regexp.MustCompile(`^[0-9]{4}$`)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerate_FormatAndExpiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	g := NewGenerator(timex.NewManualClock(now), time.Minute)

	for i := 0; i < 500; i++ {
		code, expiresAt, err := g.Generate()
		require.NoError(t, err)
		assert.Regexp(t, fourDigits, code)
		assert.Equal(t, now.Add(time.Minute), expiresAt)
	}
}

func TestGenerate_KeepsLeadingZeros(t *testing.T) {
	// rand.Int reads 2 bytes for a bound of 10000; 0x0061 == 97.
	g := NewGenerator(timex.NewManualClock(time.Unix(0, 0)), time.Minute)
	g.random = bytes.NewReader([]byte{0x00, 0x61})

	code, _, err := g.Generate()
	require.NoError(t, err)
	assert.Equal(t, "0097", code)
}

func TestGenerate_CoversRange(t *testing.T) {
	g := NewGenerator(timex.RealClock{}, time.Minute)

	seen := make(map[byte]bool)
	for i := 0; i < 2000; i++ {
		code, _, err := g.Generate()
		require.NoError(t, err)
		seen[code[0]] = true
	}
	assert.Len(t, seen, 10, "every leading digit should appear")
}

func TestGenerate_RandomFailure(t *testing.T) {
	g := NewGenerator(timex.RealClock{}, time.Minute)
	g.random = failingReader{}

	_, _, err := g.Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entropy exhausted")
}

func TestNewGenerator_DefaultTTL(t *testing.T) {
	g := NewGenerator(timex.RealClock{}, 0)
	assert.Equal(t, DefaultTTL, g.TTL())
}
