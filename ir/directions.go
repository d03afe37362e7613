package ir

import "strings"

// Adaptation is the conversion a bridge performs on one slot.
type Adaptation byte

const (
	AdaptNone        Adaptation = 'N'
	AdaptIn          Adaptation = 'I' // uniform to native
	AdaptOut         Adaptation = 'O' // native to uniform
	AdaptReinterpret Adaptation = 'R'
)

func (a Adaptation) String() string {
	switch a {
	case AdaptNone:
		return "none"
	case AdaptIn:
		return "adapt-in"
	case AdaptOut:
		return "adapt-out"
	case AdaptReinterpret:
		return "reinterpret"
	}
	return "invalid"
}

// Directions is a bridge direction set: one Adaptation for the return slot,
// then one per value-taking slot (extension receiver first, when present,
// then the value parameters in order). Directions is comparable; two sets
// are equal iff they agree slot for slot.
type Directions struct {
	tags string
}

// NewDirections builds a set from the return adaptation and the
// adaptations of the argument slots.
func NewDirections(ret Adaptation, args ...Adaptation) Directions {
	var b strings.Builder
	b.WriteByte(byte(ret))
	for _, a := range args {
		b.WriteByte(byte(a))
	}
	return Directions{tags: b.String()}
}

// Len is the number of slots, return included.
func (d Directions) Len() int { return len(d.tags) }

// Return is the adaptation of the return slot.
func (d Directions) Return() Adaptation {
	if d.tags == "" {
		return AdaptNone
	}
	return Adaptation(d.tags[0])
}

// Arg is the adaptation of the i-th argument slot.
func (d Directions) Arg(i int) Adaptation { return Adaptation(d.tags[i+1]) }

// AllNone reports whether no slot needs adapting.
func (d Directions) AllNone() bool {
	return strings.Trim(d.tags, string(AdaptNone)) == ""
}

// String is the compact tag form, e.g. "ONI".
func (d Directions) String() string { return d.tags }

// OverrideEdge is one overriding -> overridden relation.
type OverrideEdge struct {
	Overriding *Method
	Overridden *Method
}
