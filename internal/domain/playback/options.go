package playback

// Option configures a Player.
type Option func(*Player)

// WithSpeed sets the initial playback speed. Unsupported values are ignored.
func WithSpeed(speed float64) Option {
	return func(p *Player) {
		if ValidSpeed(speed) {
			p.speed = speed
		}
	}
}

// WithSlowMotionSpeed sets the speed used when jumping to a highlight.
// Unsupported values are ignored.
func WithSlowMotionSpeed(speed float64) Option {
	return func(p *Player) {
		if ValidSpeed(speed) {
			p.slowMotion = speed
		}
	}
}
