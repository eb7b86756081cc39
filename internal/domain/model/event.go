// Package model contains domain models passed between layers.
package model

import "fmt"

// EventKind identifies the type of a discrete match event.
type EventKind string

// Event kinds.
const (
	EventKill         EventKind = "kill"
	EventDamage       EventKind = "damage"
	EventWeaponSwitch EventKind = "weapon_switch"
	EventMatchStart   EventKind = "match_start"
	EventMatchEnd     EventKind = "match_end"
)

// KillPayload is carried by kill events.
type KillPayload struct {
	KillerID string `json:"killerId"`
	VictimID string `json:"victimId"`
	Weapon   string `json:"weapon,omitempty"`
}

// DamagePayload is carried by damage events.
type DamagePayload struct {
	SourceID string  `json:"sourceId"`
	TargetID string  `json:"targetId"`
	Amount   float64 `json:"amount"`
	Weapon   string  `json:"weapon,omitempty"`
}

// WeaponSwitchPayload is carried by weapon_switch events.
type WeaponSwitchPayload struct {
	ActorID string `json:"actorId"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// BoundaryPayload is carried by match_start and match_end events.
type BoundaryPayload struct {
	Mode    string `json:"mode,omitempty"`
	Outcome string `json:"outcome,omitempty"`
}

// Event is a timestamped discrete occurrence. Exactly one payload pointer is
// set and it must match Kind.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp int64     `json:"timestamp"`

	Kill         *KillPayload         `json:"kill,omitempty"`
	Damage       *DamagePayload       `json:"damage,omitempty"`
	WeaponSwitch *WeaponSwitchPayload `json:"weaponSwitch,omitempty"`
	Boundary     *BoundaryPayload     `json:"boundary,omitempty"`
}

// NewKillEvent builds an untimestamped kill event.
func NewKillEvent(killerID, victimID, weapon string) Event {
	return Event{Kind: EventKill, Kill: &KillPayload{KillerID: killerID, VictimID: victimID, Weapon: weapon}}
}

// NewDamageEvent builds an untimestamped damage event.
func NewDamageEvent(sourceID, targetID string, amount float64, weapon string) Event {
	return Event{Kind: EventDamage, Damage: &DamagePayload{SourceID: sourceID, TargetID: targetID, Amount: amount, Weapon: weapon}}
}

// NewWeaponSwitchEvent builds an untimestamped weapon_switch event.
func NewWeaponSwitchEvent(actorID, from, to string) Event {
	return Event{Kind: EventWeaponSwitch, WeaponSwitch: &WeaponSwitchPayload{ActorID: actorID, From: from, To: to}}
}

// NewBoundaryEvent builds an untimestamped match_start or match_end event.
func NewBoundaryEvent(kind EventKind, mode, outcome string) Event {
	return Event{Kind: kind, Boundary: &BoundaryPayload{Mode: mode, Outcome: outcome}}
}

// Validate reports whether the payload matches the kind.
func (e *Event) Validate() error {
	set := 0
	for _, ok := range []bool{e.Kill != nil, e.Damage != nil, e.WeaponSwitch != nil, e.Boundary != nil} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: %s event carries %d payloads", ErrInvalidEvent, e.Kind, set)
	}

	var ok bool
	switch e.Kind {
	case EventKill:
		ok = e.Kill != nil
	case EventDamage:
		ok = e.Damage != nil
	case EventWeaponSwitch:
		ok = e.WeaponSwitch != nil
	case EventMatchStart, EventMatchEnd:
		ok = e.Boundary != nil
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	if !ok {
		return fmt.Errorf("%w: payload does not match kind %s", ErrInvalidEvent, e.Kind)
	}
	return nil
}

// Clone returns a copy of e that shares no payload memory with it.
func (e Event) Clone() Event {
	if e.Kill != nil {
		p := *e.Kill
		e.Kill = &p
	}
	if e.Damage != nil {
		p := *e.Damage
		e.Damage = &p
	}
	if e.WeaponSwitch != nil {
		p := *e.WeaponSwitch
		e.WeaponSwitch = &p
	}
	if e.Boundary != nil {
		p := *e.Boundary
		e.Boundary = &p
	}
	return e
}
