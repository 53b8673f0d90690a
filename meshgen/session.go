package meshgen

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var (
	// ErrSessionClosed is returned when a closed session is used
	ErrSessionClosed = errors.New("meshgen: session closed")

	// ErrNonConforming indicates a triangulation that does not exactly tile
	// the domain
	ErrNonConforming = errors.New("meshgen: non-conforming triangulation")
)

// DefaultClearance is the minimum distance, in units of the mesh size,
// between interior lattice points and the boundary. Anything above one half
// keeps slivers away from the boundary chords.
const DefaultClearance = 0.55

// slot is the single process-wide meshing capability
var slot = make(chan struct{}, 1)

// Session is the exclusive right to run the mesh generator. Only one session
// is open at a time in the process; Open blocks until the previous holder
// calls Close.
//
//	s, err := meshgen.Open(ctx)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//	m, err := s.Generate(ctx, boundary)
type Session struct {
	logger    *slog.Logger
	clearance float64

	mu     sync.Mutex
	closed bool
	model  *model
}

// Option configures a Session
type Option func(*Session)

// WithLogger sets the logger used for generation diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClearance overrides DefaultClearance. Values at or below 0.5 are
// ignored.
func WithClearance(c float64) Option {
	return func(s *Session) {
		if c > 0.5 {
			s.clearance = c
		}
	}
}

// Open acquires the meshing capability, waiting until it is free or ctx is
// done
func Open(ctx context.Context, opts ...Option) (*Session, error) {
	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	s := &Session{
		logger:    slog.Default(),
		clearance: DefaultClearance,
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Close discards any model held by the session and releases the capability.
// Closing twice is a no-op.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.model = nil
	<-slot
	return nil
}
