package notify

import "sync"

// Memory is an in-process Source used by tests and the replay tooling.
type Memory struct {
	out chan []byte

	closeOnce sync.Once
}

func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = 16
	}
	return &Memory{out: make(chan []byte, buffer)}
}

// Publish enqueues one raw payload. It must not be called after Close.
func (m *Memory) Publish(payload []byte) {
	m.out <- payload
}

func (m *Memory) Notifications() <-chan []byte { return m.out }

func (m *Memory) Close() error {
	m.closeOnce.Do(func() { close(m.out) })
	return nil
}
