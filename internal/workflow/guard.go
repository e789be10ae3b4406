package workflow

import (
	"sync"

	custom_error "toolroom/pkg/errors"
)

// Guard tracks submissions in flight so the same entity is not submitted twice.
type Guard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewGuard() *Guard {
	return &Guard{inFlight: make(map[string]struct{})}
}

// Claim reserves kind/key until the returned release func is called.
func (g *Guard) Claim(kind Kind, key string) (func(), error) {
	slot := string(kind) + "/" + key

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.inFlight[slot]; busy {
		return nil, custom_error.ErrSubmissionInFlight
	}
	g.inFlight[slot] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.inFlight, slot)
			g.mu.Unlock()
		})
	}, nil
}
