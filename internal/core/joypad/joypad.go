// Package joypad implements the 4x2 key matrix behind register FF00
// (spec §4.6, §6.5).
package joypad

import "github.com/bassicali/gem-sub000/internal/core/interrupt"

// Key identifies one of the eight physical buttons (spec §6.5).
type Key uint8

const (
	A Key = iota
	B
	Select
	Start
	Right
	Left
	Up
	Down
)

// direction reports whether key belongs to the direction nibble (as
// opposed to the button nibble).
func (k Key) direction() bool { return k >= Right }

// bit is the key's position within its own nibble (0-3).
func (k Key) bit() uint8 {
	if k.direction() {
		return uint8(k - Right)
	}
	return uint8(k)
}

// State models the FF00 register: two select bits chosen by the guest,
// and the eight button states tracked internally.
type State struct {
	irq *interrupt.Controller

	selectButtons   bool // bit 5 clear: button nibble selected
	selectDirection bool // bit 4 clear: direction nibble selected

	buttons   uint8 // bits 0-3: A,B,Select,Start (1 = pressed)
	direction uint8 // bits 0-3: Right,Left,Up,Down (1 = pressed)
}

// New returns a State that will raise Joypad interrupts on irq.
func New(irq *interrupt.Controller) *State {
	return &State{irq: irq}
}

// Press marks key as held and requests a Joypad interrupt if the guest is
// currently selecting that key's group (spec §4.6).
func (s *State) Press(k Key) {
	already := s.isSet(k)
	if k.direction() {
		s.direction |= 1 << k.bit()
	} else {
		s.buttons |= 1 << k.bit()
	}
	if already {
		return
	}
	if (k.direction() && s.selectDirection) || (!k.direction() && s.selectButtons) {
		s.irq.Raise(interrupt.Joypad)
	}
}

// Release marks key as released.
func (s *State) Release(k Key) {
	if k.direction() {
		s.direction &^= 1 << k.bit()
	} else {
		s.buttons &^= 1 << k.bit()
	}
}

func (s *State) isSet(k Key) bool {
	if k.direction() {
		return s.direction&(1<<k.bit()) != 0
	}
	return s.buttons&(1<<k.bit()) != 0
}

// Read returns the FF00 register: active-low nibble of whichever group(s)
// are selected, OR'd together per real hardware when both select lines
// are low.
func (s *State) Read() uint8 {
	v := uint8(0x0F)
	if s.selectDirection {
		v &^= s.direction & 0x0F
	}
	if s.selectButtons {
		v &^= s.buttons & 0x0F
	}
	top := uint8(0xC0)
	if !s.selectDirection {
		top |= 0x10
	}
	if !s.selectButtons {
		top |= 0x20
	}
	return top | v
}

// Write updates the two select bits (spec §6.6: only bits 4-5 are
// writable from the guest's perspective).
func (s *State) Write(v uint8) {
	s.selectDirection = v&0x10 == 0
	s.selectButtons = v&0x20 == 0
}
