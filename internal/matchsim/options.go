package matchsim

// Option applies a configuration option to the Simulator.
type Option func(*Simulator)

// WithSeed fixes the random source. Equal seeds replay identical matches.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.seed = seed
	}
}

// WithAgents sets how many agents enter the arena, capped at the roster size.
func WithAgents(n int) Option {
	return func(s *Simulator) {
		if n >= 2 && n <= len(agentNames) {
			s.agents = n
		}
	}
}

// WithTimeLimit bounds the match length in ms.
func WithTimeLimit(ms int64) Option {
	return func(s *Simulator) {
		if ms > 0 {
			s.timeLimit = ms
		}
	}
}

// WithTick sets the simulation step in ms.
func WithTick(ms int64) Option {
	return func(s *Simulator) {
		if ms > 0 {
			s.tick = ms
		}
	}
}

// WithMode sets the match mode recorded on the timeline.
func WithMode(mode string) Option {
	return func(s *Simulator) {
		if mode != "" {
			s.mode = mode
		}
	}
}
