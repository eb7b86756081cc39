package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*ringDeduper)

// WithMaxSize sets the number of IDs remembered. Values below one are ignored.
func WithMaxSize(maxSize int) Option {
	return func(d *ringDeduper) {
		if maxSize > 0 {
			d.maxSize = maxSize
		}
	}
}
