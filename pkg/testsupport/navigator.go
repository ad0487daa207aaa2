package testsupport

import (
	"context"
	"sync"
)

// Navigator records navigation targets instead of following them.
type Navigator struct {
	mu      sync.Mutex
	targets []string

	// Err is returned from every Navigate call when set.
	Err error
}

func (n *Navigator) Navigate(ctx context.Context, target string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
	return n.Err
}

// Targets returns the recorded targets in call order.
func (n *Navigator) Targets() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}
