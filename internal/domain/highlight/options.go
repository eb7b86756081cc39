package highlight

// Option applies a configuration option to a detection pass.
type Option func(*detector)

// WithKillWindow sets the sliding window used for multi-kill detection, in ms.
func WithKillWindow(ms int64) Option {
	return func(d *detector) {
		if ms > 0 {
			d.killWindow = ms
		}
	}
}

// WithSuppressionWindow sets the minimum distance between kept highlights, in ms.
func WithSuppressionWindow(ms int64) Option {
	return func(d *detector) {
		if ms >= 0 {
			d.suppressWindow = ms
		}
	}
}

// WithMaxHighlights caps the number of highlights returned.
func WithMaxHighlights(n int) Option {
	return func(d *detector) {
		if n > 0 {
			d.maxHighlights = n
		}
	}
}

// WithClutchHealthFraction sets the killer health fraction below which a kill
// counts as a clutch.
func WithClutchHealthFraction(f float64) Option {
	return func(d *detector) {
		if f > 0 && f <= 1 {
			d.clutchHealth = f
		}
	}
}

// WithKillIndex supplies per-actor kill timestamps collected while recording.
// Without it the index is rebuilt from kill events.
func WithKillIndex(index map[string][]int64) Option {
	return func(d *detector) {
		d.killIndex = index
	}
}
