// Copyright 2021 The fetchgate Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package fetchgate

import (
	"github.com/gogama/fetchgate/request"
)

// A HandlerGroup holds one handler chain per Event. A Client runs the
// chain for each event as its plan execution reaches it, in the order
// the handlers were added. The zero value is an empty group.
//
// A HandlerGroup must not be modified while a Client is using it.
type HandlerGroup struct {
	chains [numEvents][]Handler
}

// PushBack adds h to the back of the chain for evt.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	g.On(h, evt)
}

// On adds h to the back of the chain of every listed event. It panics
// if h is nil or an event is not one of the values returned by Events.
func (g *HandlerGroup) On(h Handler, evts ...Event) {
	if h == nil {
		panic("fetchgate: nil handler")
	}
	for _, evt := range evts {
		if evt < 0 || int(evt) >= numEvents {
			panic("fetchgate: invalid event")
		}
	}
	for _, evt := range evts {
		g.chains[evt] = append(g.chains[evt], h)
	}
}

// Len returns the number of handlers in the chain for evt.
func (g *HandlerGroup) Len(evt Event) int {
	if evt < 0 || int(evt) >= numEvents {
		return 0
	}
	return len(g.chains[evt])
}

func (g *HandlerGroup) run(evt Event, e *request.Execution) {
	for _, h := range g.chains[evt] {
		h.Handle(evt, e)
	}
}

// A Handler reacts to an event during a plan execution. Listener and
// the metrics collector are Handlers.
type Handler interface {
	Handle(Event, *request.Execution)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(Event, *request.Execution)

// Handle calls f(evt, e).
func (f HandlerFunc) Handle(evt Event, e *request.Execution) {
	f(evt, e)
}
