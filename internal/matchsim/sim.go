// Package matchsim runs deterministic free-for-all matches and records them,
// standing in for the live arena when exercising the replay service.
package matchsim

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/okian/arena/internal/domain/model"
	"github.com/okian/arena/internal/domain/recorder"
)

// Simulation defaults.
const (
	DefaultAgents    = 6
	DefaultTimeLimit = 90_000 // ms
	DefaultTick      = 100    // ms
	DefaultMode      = "ffa"

	arenaSize     = 40.0 // world units, centered on the origin
	moveSpeed     = 6.0  // units per second
	maxHealth     = 100.0
	killReward    = 250
	surviveReward = 1 // tokens per tick alive
	fireChance    = 0.12
	switchChance  = 0.004
)

var agentNames = []string{"PHANTOM", "NEXUS-7", "TITAN", "CIPHER", "WRAITH", "AURORA"}

var agentColors = []string{"#ff3366", "#00f0ff", "#ffa500", "#b464ff", "#64ff64", "#ffdc32"}

type weapon struct {
	name   string
	damage float64
	reach  float64
}

var weapons = []weapon{
	{"beam", 12, 18},
	{"railgun", 34, 30},
	{"scatter", 20, 8},
	{"rocket", 28, 16},
	{"plasma", 22, 14},
	{"void", 40, 6},
}

type agent struct {
	model.ActorSnapshot
	Name    string
	heading float64
	weapon  int
}

// Simulator produces recorded matches.
type Simulator struct {
	seed      uint64
	agents    int
	timeLimit int64
	tick      int64
	mode      string
}

// New creates a simulator with the given options.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		seed:      1,
		agents:    DefaultAgents,
		timeLimit: DefaultTimeLimit,
		tick:      DefaultTick,
		mode:      DefaultMode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run plays one match into rec and returns the finalized timeline. rec must
// be idle.
func (s *Simulator) Run(ctx context.Context, rec *recorder.Recorder) (*model.Timeline, error) {
	const op = "matchsim.run"
	rng := rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))
	agents := s.spawn(rng)

	if err := rec.Start(s.mode); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for t := int64(0); t <= s.timeLimit; t += s.tick {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.step(rng, rec, agents, t); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := rec.RecordFrame(snapshots(agents), leader(agents), t); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if aliveCount(agents) <= 1 {
			break
		}
	}

	if err := rec.Stop(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	tl, err := rec.Finalize(roster(agents), outcome(agents))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tl, nil
}

func (s *Simulator) spawn(rng *rand.Rand) []*agent {
	agents := make([]*agent, s.agents)
	for i := range agents {
		angle := 2 * math.Pi * float64(i) / float64(s.agents)
		w := rng.IntN(len(weapons))
		agents[i] = &agent{
			ActorSnapshot: model.ActorSnapshot{
				ID:        fmt.Sprintf("agent-%d", i+1),
				Position:  model.Vec3{X: math.Cos(angle) * arenaSize / 3, Z: math.Sin(angle) * arenaSize / 3},
				Rotation:  angle + math.Pi,
				Health:    maxHealth,
				MaxHealth: maxHealth,
				Weapon:    weapons[w].name,
				Alive:     true,
				Color:     agentColors[i],
			},
			Name:    agentNames[i],
			heading: angle + math.Pi,
			weapon:  w,
		}
	}
	return agents
}

// step advances every living agent by one tick: move, maybe switch weapon,
// maybe fire at the nearest opponent in reach.
func (s *Simulator) step(rng *rand.Rand, rec *recorder.Recorder, agents []*agent, t int64) error {
	dt := float64(s.tick) / 1000
	for _, a := range agents {
		if !a.Alive {
			continue
		}
		a.heading += (rng.Float64() - 0.5) * 0.6
		a.Position.X = clamp(a.Position.X+math.Cos(a.heading)*moveSpeed*dt, -arenaSize/2, arenaSize/2)
		a.Position.Z = clamp(a.Position.Z+math.Sin(a.heading)*moveSpeed*dt, -arenaSize/2, arenaSize/2)
		a.Rotation = a.heading
		a.Tokens += surviveReward

		if rng.Float64() < switchChance {
			next := rng.IntN(len(weapons))
			if next != a.weapon {
				if err := rec.RecordWeaponSwitch(a.ID, weapons[a.weapon].name, weapons[next].name, t); err != nil {
					return err
				}
				a.weapon = next
				a.Weapon = weapons[next].name
			}
		}
	}

	for _, a := range agents {
		if !a.Alive || rng.Float64() >= fireChance {
			continue
		}
		w := weapons[a.weapon]
		target := nearest(agents, a, w.reach)
		if target == nil {
			continue
		}
		a.Rotation = math.Atan2(target.Position.Z-a.Position.Z, target.Position.X-a.Position.X)
		amount := math.Round(w.damage*(0.5+rng.Float64())*10) / 10
		target.Health = math.Max(0, target.Health-amount)
		if err := rec.RecordDamage(a.ID, target.ID, amount, w.name, t); err != nil {
			return err
		}
		if target.Health > 0 {
			continue
		}
		target.Alive = false
		a.Kills++
		a.Tokens += killReward
		if err := rec.RecordKill(a.ID, target.ID, w.name, t); err != nil {
			return err
		}
	}
	return nil
}

func nearest(agents []*agent, from *agent, reach float64) *agent {
	var best *agent
	bestDist := reach
	for _, o := range agents {
		if o == from || !o.Alive {
			continue
		}
		d := math.Hypot(o.Position.X-from.Position.X, o.Position.Z-from.Position.Z)
		if d <= bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

func snapshots(agents []*agent) []model.ActorSnapshot {
	out := make([]model.ActorSnapshot, len(agents))
	for i, a := range agents {
		out[i] = a.ActorSnapshot
	}
	return out
}

// leader is the camera target: the living agent with the most kills.
func leader(agents []*agent) *model.ActorSnapshot {
	var best *agent
	for _, a := range agents {
		if a.Alive && (best == nil || a.Kills > best.Kills) {
			best = a
		}
	}
	if best == nil {
		return nil
	}
	snap := best.ActorSnapshot
	return &snap
}

func roster(agents []*agent) []model.RosterEntry {
	out := make([]model.RosterEntry, len(agents))
	for i, a := range agents {
		out[i] = model.RosterEntry{
			ID:     a.ID,
			Name:   a.Name,
			Color:  a.Color,
			Kills:  a.Kills,
			Tokens: a.Tokens,
			Alive:  a.Alive,
		}
	}
	return out
}

func outcome(agents []*agent) string {
	if aliveCount(agents) == 1 {
		for _, a := range agents {
			if a.Alive {
				return a.Name + " wins"
			}
		}
	}
	return "time limit"
}

func aliveCount(agents []*agent) int {
	n := 0
	for _, a := range agents {
		if a.Alive {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
