package estimator

import (
	"fmt"
	"sync"
)

// State is a step in the lifecycle of one calculation request.
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateFetching   State = "fetching"
	StateComputing  State = "computing"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

var transitions = map[State][]State{
	StateIdle:       {StateValidating},
	StateValidating: {StateFetching, StateFailed},
	StateFetching:   {StateComputing, StateFailed},
	StateComputing:  {StateDone, StateFailed},
}

// Terminal reports whether no further transition is possible from s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// TransitionFunc observes state changes of a request.
type TransitionFunc func(from, to State)

// request tracks the lifecycle of a single calculation. A fresh request is
// created for every call to Calculate.
type request struct {
	mu      sync.Mutex
	state   State
	history []State
	observe TransitionFunc
}

func newRequest(observe TransitionFunc) *request {
	return &request{
		state:   StateIdle,
		history: []State{StateIdle},
		observe: observe,
	}
}

func (r *request) to(next State) error {
	r.mu.Lock()
	from := r.state
	if from.Terminal() {
		r.mu.Unlock()
		return fmt.Errorf("request already %s, cannot move to %s", from, next)
	}
	allowed := false
	for _, s := range transitions[from] {
		if s == next {
			allowed = true
			break
		}
	}
	if !allowed {
		r.mu.Unlock()
		return fmt.Errorf("invalid transition %s -> %s", from, next)
	}
	r.state = next
	r.history = append(r.history, next)
	r.mu.Unlock()

	if r.observe != nil {
		r.observe(from, next)
	}
	return nil
}

func (r *request) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *request) History() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.history...)
}
