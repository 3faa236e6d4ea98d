package sqlite

import (
	"context"
	"fmt"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// writeQueueSize bounds how many writes can be pending before enqueuers
// block.
const writeQueueSize = 64

// writeOp is a unit of work for the single writer goroutine.
type writeOp struct {
	apply func() error
	done  chan error
}

// runWriter is the single writer goroutine. It applies queued operations
// in arrival order until the queue is closed.
func (s *Store) runWriter() {
	defer close(s.writerDone)
	for op := range s.writes {
		op.done <- op.apply()
	}
}

// enqueue submits a write and waits for it to complete. If the caller's
// context is cancelled while the write is still queued or running, the
// write itself is not aborted; only the wait is.
func (s *Store) enqueue(ctx context.Context, apply func() error) error {
	op := &writeOp{apply: apply, done: make(chan error, 1)}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return domain.ErrIndexClosed
	}
	select {
	case s.writes <- op:
		s.mu.RUnlock()
	case <-ctx.Done():
		s.mu.RUnlock()
		return fmt.Errorf("enqueue index write: %w", ctx.Err())
	}

	select {
	case err := <-op.done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("await index write: %w", ctx.Err())
	}
}
