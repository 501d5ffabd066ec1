package notify

import "sync"

// Signal fans a "something changed" tick out to any number of listeners.
// Each listener channel has room for one pending tick, so bursts coalesce and
// Fire never blocks the writer holding state locks.
type Signal struct {
	mu   sync.Mutex
	next int
	subs map[int]chan struct{}
}

// Subscribe returns a channel that receives a tick after every Fire, plus a
// cancel func that closes it.
func (s *Signal) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]chan struct{})
	}
	id := s.next
	s.next++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

func (s *Signal) Fire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
