package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	UsersRegistered       uint64
	LoginSuccesses        uint64
	LoginFailures         uint64
	TokensRejectedExpired uint64
	TokensRejectedInvalid uint64
	TokensRefreshed       uint64
	NotesCreated          uint64
	NotesUpdated          uint64
	NotesDeleted          uint64
	NoteSearches          uint64
}

// InMemoryRecorder stores metrics in memory using atomic counters.
type InMemoryRecorder struct {
	usersRegistered       uint64
	loginSuccesses        uint64
	loginFailures         uint64
	tokensRejectedExpired uint64
	tokensRejectedInvalid uint64
	tokensRefreshed       uint64
	notesCreated          uint64
	notesUpdated          uint64
	notesDeleted          uint64
	noteSearches          uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		UsersRegistered:       atomic.LoadUint64(&m.usersRegistered),
		LoginSuccesses:        atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:         atomic.LoadUint64(&m.loginFailures),
		TokensRejectedExpired: atomic.LoadUint64(&m.tokensRejectedExpired),
		TokensRejectedInvalid: atomic.LoadUint64(&m.tokensRejectedInvalid),
		TokensRefreshed:       atomic.LoadUint64(&m.tokensRefreshed),
		NotesCreated:          atomic.LoadUint64(&m.notesCreated),
		NotesUpdated:          atomic.LoadUint64(&m.notesUpdated),
		NotesDeleted:          atomic.LoadUint64(&m.notesDeleted),
		NoteSearches:          atomic.LoadUint64(&m.noteSearches),
	}
}

// IncUserRegistered increments the registration counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLoginSuccess increments the successful login counter.
func (m *InMemoryRecorder) IncLoginSuccess() {
	atomic.AddUint64(&m.loginSuccesses, 1)
}

// IncLoginFailure increments the failed login counter.
func (m *InMemoryRecorder) IncLoginFailure() {
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncTokenRejected increments the rejected token counter for a reason.
func (m *InMemoryRecorder) IncTokenRejected(reason string) {
	switch reason {
	case "expired":
		atomic.AddUint64(&m.tokensRejectedExpired, 1)
	default:
		atomic.AddUint64(&m.tokensRejectedInvalid, 1)
	}
}

// IncTokenRefreshed increments the refresh counter.
func (m *InMemoryRecorder) IncTokenRefreshed() {
	atomic.AddUint64(&m.tokensRefreshed, 1)
}

// IncNoteCreated increments the note creation counter.
func (m *InMemoryRecorder) IncNoteCreated() {
	atomic.AddUint64(&m.notesCreated, 1)
}

// IncNoteUpdated increments the note update counter.
func (m *InMemoryRecorder) IncNoteUpdated() {
	atomic.AddUint64(&m.notesUpdated, 1)
}

// IncNoteDeleted increments the note deletion counter.
func (m *InMemoryRecorder) IncNoteDeleted() {
	atomic.AddUint64(&m.notesDeleted, 1)
}

// IncNoteSearched increments the note search counter.
func (m *InMemoryRecorder) IncNoteSearched() {
	atomic.AddUint64(&m.noteSearches, 1)
}
