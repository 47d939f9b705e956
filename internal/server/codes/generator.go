// Package codes produces the short numeric codes that prove control of an
// email address.
package codes

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/common"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
)

// DefaultTTL is how long a freshly issued code stays usable.
const DefaultTTL = common.DefaultCodeTTL

var codeSpace = big.NewInt(10000)

// Generator returns uniformly distributed 4-digit codes together with their
// expiry. Values are not unique; callers must not rely on that.
type Generator struct {
	clock  timex.Clock
	random io.Reader
	ttl    time.Duration
}

// NewGenerator returns a Generator backed by crypto/rand. A non-positive
// ttl falls back to DefaultTTL.
func NewGenerator(clock timex.Clock, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Generator{clock: clock, random: rand.Reader, ttl: ttl}
}

// TTL reports the lifetime applied to generated codes.
func (g *Generator) TTL() time.Duration {
	return g.ttl
}

// Generate returns a code in 0000..9999 and the instant it stops being valid.
func (g *Generator) Generate() (string, time.Time, error) {
	n, err := rand.Int(g.random, codeSpace)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate activation code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), g.clock.Now().Add(g.ttl), nil
}
