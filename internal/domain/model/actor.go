// Package model contains domain models passed between layers.
package model

// Vec3 is a position in arena world units.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ActorSnapshot is the visible state of one tracked actor inside a Frame.
// Snapshots are values; a Frame owns its own copy.
type ActorSnapshot struct {
	ID        string  `json:"id"`
	Position  Vec3    `json:"position"`
	Rotation  float64 `json:"rotation"` // yaw, radians
	Health    float64 `json:"health"`
	MaxHealth float64 `json:"maxHealth"`
	Tokens    int64   `json:"tokens"`
	Weapon    string  `json:"weapon"`
	Alive     bool    `json:"alive"`
	Kills     int     `json:"kills"`
	Color     string  `json:"color"`
}

// HealthFraction returns Health/MaxHealth, or 0 when MaxHealth is not positive.
func (a ActorSnapshot) HealthFraction() float64 {
	if a.MaxHealth <= 0 {
		return 0
	}
	return a.Health / a.MaxHealth
}

// Frame is a timestamped snapshot of all tracked actors.
type Frame struct {
	Timestamp int64           `json:"timestamp"` // ms since match start
	Actors    []ActorSnapshot `json:"actors"`
	Primary   *ActorSnapshot  `json:"primary,omitempty"`
}

// Actor returns the snapshot for id, if present in the frame.
func (f *Frame) Actor(id string) (ActorSnapshot, bool) {
	for i := range f.Actors {
		if f.Actors[i].ID == id {
			return f.Actors[i], true
		}
	}
	return ActorSnapshot{}, false
}
