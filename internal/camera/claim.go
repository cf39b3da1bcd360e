package camera

import "sync"

// claim tracks the single active handle of a source
type claim struct {
	mu     sync.Mutex
	handle *Handle
}

// acquire returns the active handle, or runs start to claim the device
func (c *claim) acquire(start func(h *Handle) error) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.handle != nil {
		return c.handle, nil
	}
	h := newHandle()
	if err := start(h); err != nil {
		return nil, err
	}
	c.handle = h
	return h, nil
}

func (c *claim) check(h *Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h == nil || c.handle != h {
		return ErrNotOpen
	}
	return nil
}

// release runs stop once for the active handle
func (c *claim) release(h *Handle, stop func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h == nil || c.handle != h {
		return ErrNotOpen
	}
	c.handle = nil
	return stop()
}
