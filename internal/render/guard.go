package render

import (
	"fmt"
	"log"
)

// Guard draws with a primary function until it fails, then latches a fallback.
//
// A failure is a returned error or a panic. Once latched the primary is never
// called again; the failure is logged once.
type Guard[S any] struct {
	name     string
	primary  func(S) error
	fallback func(S, error)
	err      error
}

// NewGuard creates a Guard. name prefixes the log line.
func NewGuard[S any](name string, primary func(S) error, fallback func(S, error)) *Guard[S] {
	return &Guard[S]{
		name:     name,
		primary:  primary,
		fallback: fallback,
	}
}

// Draw renders s with the primary, or with the fallback after a failure.
func (g *Guard[S]) Draw(s S) {
	if g.err == nil {
		g.err = g.try(s)
		if g.err == nil {
			return
		}
		log.Printf("%s failed, switching to fallback: %v", g.name, g.err)
	}
	if g.fallback != nil {
		g.fallback(s, g.err)
	}
}

func (g *Guard[S]) try(s S) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return g.primary(s)
}

// Failed reports whether the fallback is latched.
func (g *Guard[S]) Failed() bool {
	return g.err != nil
}

// Err returns the failure that latched the fallback.
func (g *Guard[S]) Err() error {
	return g.err
}
