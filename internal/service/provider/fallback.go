package provider

import (
	"math/rand"
	"sync"
	"time"

	"TrendCast/internal/domain/models"
)

// FallbackPoints is the fixed length of a synthetic series.
const FallbackPoints = 500

// Per-field value ranges of the synthetic generator. The fallback exists
// only to keep the pipeline alive without a reachable provider, never to
// produce trading-grade signals.
const (
	fallbackHighMin, fallbackHighMax     = 50, 150
	fallbackLowMin, fallbackLowMax       = 20, 70
	fallbackCloseMin, fallbackCloseMax   = 30, 110
	fallbackVolumeMin, fallbackVolumeMax = 0, 1000
)

// Generator produces synthetic daily series with the provider's shape.
// The randomness source is injected so tests can pin a seed; a zero seed
// falls back to wall-clock seeding.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

// GeneratorOption configures the generator.
type GeneratorOption func(*Generator)

// WithGeneratorClock overrides the time source. Used by tests.
func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a fallback series generator.
func NewGenerator(seed int64, opts ...GeneratorOption) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	g := &Generator{
		rnd: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Series returns FallbackPoints daily bars ending today, counting backward,
// with strictly increasing dates and each field inside its documented range.
func (g *Generator) Series() models.Series {
	g.mu.Lock()
	defer g.mu.Unlock()

	end := g.now().UTC().Truncate(24 * time.Hour)
	series := make(models.Series, FallbackPoints)
	for i := 0; i < FallbackPoints; i++ {
		day := end.AddDate(0, 0, i-FallbackPoints+1)
		series[i] = models.Bar{
			Date:   day,
			High:   g.inRange(fallbackHighMin, fallbackHighMax),
			Low:    g.inRange(fallbackLowMin, fallbackLowMax),
			Close:  g.inRange(fallbackCloseMin, fallbackCloseMax),
			Volume: g.inRange(fallbackVolumeMin, fallbackVolumeMax),
		}
	}
	return series
}

func (g *Generator) inRange(lo, hi float64) float64 {
	return lo + g.rnd.Float64()*(hi-lo)
}
