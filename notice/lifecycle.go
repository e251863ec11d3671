/*
Package notice models the delivery lifecycle of a strike notice.

PURPOSE:
  The rules engine treats the strike-notice log as an append-only fact: a
  notice either has an official service date or it does not exist yet. The
  surrounding application, though, walks each notice through a delivery
  lifecycle (drafted, queued for delivery, sent, served, then remedied,
  expired or escalated to the tribunal). This package is the guard rail for
  those mutations: every state change is validated against the transition
  table before the store accepts it.

  Delivery itself (email/SMS) lives outside this repository; the delivery
  layer is at-least-once, so callers must also deduplicate notices per due
  date before recording them.

STATES:
  draft -> queued -> sent -> served -> remedied   (tenant paid in time)
                                    -> expired    (remedy window lapsed)
                                    -> escalated  (tribunal application filed)
  draft and queued may be discarded; anything served is immutable history.
*/
package notice

import (
	"context"
	"errors"
	"fmt"

	loopfsm "github.com/looplab/fsm"
)

// State is a notice's position in the delivery lifecycle.
type State string

const (
	StateDraft     State = "draft"
	StateQueued    State = "queued"
	StateSent      State = "sent"
	StateServed    State = "served"
	StateRemedied  State = "remedied"
	StateExpired   State = "expired"
	StateEscalated State = "escalated"
	StateDiscarded State = "discarded"
)

// Event is a lifecycle action.
type Event string

const (
	EventQueue    Event = "queue"
	EventSend     Event = "send"
	EventServe    Event = "serve"
	EventRemedy   Event = "remedy"
	EventExpire   Event = "expire"
	EventEscalate Event = "escalate"
	EventDiscard  Event = "discard"
)

// Transition is one allowed edge in the lifecycle.
type Transition struct {
	Event Event
	Src   State
	Dst   State
}

// Transitions is the complete lifecycle. Served notices only move forward:
// there is no path back from served, and nothing served can be discarded.
var Transitions = []Transition{
	{Event: EventQueue, Src: StateDraft, Dst: StateQueued},
	{Event: EventSend, Src: StateQueued, Dst: StateSent},
	{Event: EventServe, Src: StateSent, Dst: StateServed},
	{Event: EventRemedy, Src: StateServed, Dst: StateRemedied},
	{Event: EventExpire, Src: StateServed, Dst: StateExpired},
	{Event: EventEscalate, Src: StateServed, Dst: StateEscalated},
	{Event: EventDiscard, Src: StateDraft, Dst: StateDiscarded},
	{Event: EventDiscard, Src: StateQueued, Dst: StateDiscarded},
}

// TransitionError is returned when a lifecycle event is not allowed from the
// notice's current state.
type TransitionError struct {
	Event   Event
	Current State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// events converts Transitions into looplab/fsm EventDesc format, grouping
// transitions that share an event and destination into one EventDesc with
// multiple source states (EventDiscard from draft and queued).
var events = buildEvents()

func buildEvents() []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, t := range Transitions {
		k := key{event: string(t.Event), dst: string(t.Dst)}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], string(t.Src))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// Validator applies lifecycle events. looplab/fsm tracks current state
// internally, so a short-lived machine is built per Apply call.
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// Apply checks that the event is valid from the current state and returns
// the destination state.
func (v *Validator) Apply(ctx context.Context, current State, event Event) (State, error) {
	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(event)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &invalidEvent) || errors.As(err, &noTransition) {
			return "", &TransitionError{Event: event, Current: current}
		}
		return "", err
	}

	return State(machine.Current()), nil
}
