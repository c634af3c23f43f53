package stats

// Defaults for the city finishing step.
const (
	DefaultMinShare = 0.01
	DefaultTopLimit = 10
	shareDecimals   = 4
)

// Option applies a configuration option to the Equalizer.
type Option func(*Equalizer)

// WithMinShare sets the share below which a city is pruned.
func WithMinShare(share float64) Option {
	return func(e *Equalizer) {
		if share >= 0 && share <= 1 {
			e.minShare = share
		}
	}
}

// WithTopLimit sets the length of the ranked city views.
func WithTopLimit(n int) Option {
	return func(e *Equalizer) {
		if n > 0 {
			e.topLimit = n
		}
	}
}
