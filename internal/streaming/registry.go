package streaming

import (
	"sync"

	"github.com/swyh-go/swyh-go/internal/audio"
)

// Registry is the ClientRegistry of spec.md §3: a mapping remote_ip →
// Session, with the invariant that a second GET from the same ip replaces
// the first. It is read by the HTTP accept path (to register/deregister)
// and scanned by the Coordinator's auto-resume check; never mutated by the
// audio callback.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]entry
	bus      *audio.Bus
}

type entry struct {
	session  *Session
	consumer *audio.Consumer
}

// NewRegistry builds a Registry whose sessions draw their frames from bus.
func NewRegistry(bus *audio.Bus) *Registry {
	return &Registry{sessions: make(map[string]entry), bus: bus}
}

// Open registers a new session for remoteIP, evicting (closing the queue
// of) any prior session under the same ip first, per the ClientRegistry
// invariant. Returns the new Session, already bound to a fresh Bus
// Consumer.
func (r *Registry) Open(remoteIP string, newSession func(consumer *audio.Consumer) *Session) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Bus.Register already evicts any prior consumer under this key, which
	// closes its queue and unblocks the old session's WriteTo loop.
	consumer := r.bus.Register(remoteIP)
	sess := newSession(consumer)
	r.sessions[remoteIP] = entry{session: sess, consumer: consumer}
	return sess
}

// Close deregisters remoteIP's session, if it is still the one passed in
// (a newer Open for the same ip must win a race against a stale Close).
func (r *Registry) Close(remoteIP string, sess *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[remoteIP]
	if !ok || e.session != sess {
		return
	}
	delete(r.sessions, remoteIP)
	r.bus.Unregister(remoteIP, e.consumer)
}

// Has reports whether remoteIP currently has an active session, the check
// the Coordinator's auto-resume policy uses per spec.md §4.8.
func (r *Registry) Has(remoteIP string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[remoteIP]
	return ok
}

// Len reports the number of currently registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
