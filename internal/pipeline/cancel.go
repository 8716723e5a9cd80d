package pipeline

import (
	"sync"
	"sync/atomic"
)

// CancelFlag is set by the UI and observed by the encode loop. It is safe for
// concurrent use; the zero value is not set.
type CancelFlag struct {
	set  atomic.Bool
	once sync.Once
	mu   sync.Mutex
	done chan struct{}
}

// NewCancelFlag returns an unset flag.
func NewCancelFlag() *CancelFlag { return &CancelFlag{} }

// Set requests cancellation. Further calls are no-ops.
func (c *CancelFlag) Set() {
	if c == nil {
		return
	}
	c.set.Store(true)
	c.once.Do(func() { close(c.channel()) })
}

// IsSet reports whether cancellation was requested. A nil flag is never set.
func (c *CancelFlag) IsSet() bool {
	return c != nil && c.set.Load()
}

// Done is closed once Set is called. A nil flag returns a nil channel.
func (c *CancelFlag) Done() <-chan struct{} {
	if c == nil {
		return nil
	}
	return c.channel()
}

func (c *CancelFlag) channel() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == nil {
		c.done = make(chan struct{})
	}
	return c.done
}
