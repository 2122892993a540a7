package space

import (
	"fmt"
	"weak"

	"github.com/amebel/metta-go/pkg/atom"
)

// EventKind discriminates space modification events.
type EventKind uint8

const (
	// EventAdd reports that an atom was added.
	EventAdd EventKind = iota
	// EventRemove reports that an atom was removed.
	EventRemove
	// EventReplace reports that one atom was overwritten by another.
	EventReplace
)

// Event describes a single space modification. Atom is the subject of the
// event; Replacement is set only for EventReplace.
type Event struct {
	Kind        EventKind
	Atom        atom.Atom
	Replacement atom.Atom
}

// AddEvent builds an add event for a.
func AddEvent(a atom.Atom) Event { return Event{Kind: EventAdd, Atom: a} }

// RemoveEvent builds a remove event for a.
func RemoveEvent(a atom.Atom) Event { return Event{Kind: EventRemove, Atom: a} }

// ReplaceEvent builds a replace event recording that old was overwritten by
// replacement.
func ReplaceEvent(old, replacement atom.Atom) Event {
	return Event{Kind: EventReplace, Atom: old, Replacement: replacement}
}

// Equal reports whether two events describe the same modification.
func (e Event) Equal(other Event) bool {
	if e.Kind != other.Kind || !e.Atom.Equal(other.Atom) {
		return false
	}
	if e.Kind != EventReplace {
		return true
	}
	return e.Replacement.Equal(other.Replacement)
}

func (e Event) String() string {
	switch e.Kind {
	case EventAdd:
		return fmt.Sprintf("add(%s)", e.Atom)
	case EventRemove:
		return fmt.Sprintf("remove(%s)", e.Atom)
	case EventReplace:
		return fmt.Sprintf("replace(%s, %s)", e.Atom, e.Replacement)
	default:
		return "unknown"
	}
}

// Observer receives space modification events. Notify must not mutate the
// notifying space; notifications are delivered synchronously in
// registration order.
type Observer interface {
	Notify(Event)
}

// weakObserver resolves to the registered observer or nil once its holder
// has been collected.
type weakObserver func() Observer

// Observe registers obs with s through a weak reference. The registration
// lapses automatically once the caller drops its last strong reference to
// obs; the space compacts lapsed entries during notification.
func Observe[T any, PT interface {
	*T
	Observer
}](s *Space, obs PT) {
	ref := weak.Make((*T)(obs))
	s.observers = append(s.observers, func() Observer {
		p := ref.Value()
		if p == nil {
			return nil
		}
		return PT(p)
	})
}
