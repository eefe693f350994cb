package registry

import (
	"sync"

	"github.com/oxbowlabs/smb1d/internal/smb1/spi"
)

// Session is created by successful authentication; UID 0 is reserved and
// never issued, per spec §3.
type Session struct {
	UID        uint16
	Account    string
	Domain     string
	LoginKey   uint64
	ProviderID any // opaque SPI session handle, for teardown on destroy

	mu       sync.Mutex
	searches map[uint16]*Search
	nextSID  uint16
}

// SessionRegistry issues process-wide unique 16-bit UIDs. The space wraps
// at 0xFFFF but the registry refuses to reissue a UID still in use.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[uint16]*Session
	nextUID  uint32 // wide enough to detect wraparound without extra bookkeeping
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[uint16]*Session)}
}

// Create allocates a new UID and registers a session under it. UID 0 is
// never issued.
func (r *SessionRegistry) Create(account, domain string, loginKey uint64, providerID any) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	uid := r.allocateUIDLocked()
	s := &Session{
		UID:      uid,
		Account:  account,
		Domain:   domain,
		LoginKey: loginKey,
		ProviderID: providerID,
		searches: make(map[uint16]*Search),
	}
	r.sessions[uid] = s
	return s
}

func (r *SessionRegistry) allocateUIDLocked() uint16 {
	for {
		r.nextUID++
		candidate := uint16(r.nextUID)
		if candidate == 0 {
			continue // UID 0 is invalid, per spec §3
		}
		if _, exists := r.sessions[candidate]; !exists {
			return candidate
		}
	}
}

func (r *SessionRegistry) Lookup(uid uint16) (*Session, bool) {
	if uid == 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[uid]
	return s, ok
}

// Destroy removes a session. Callers are responsible for cascading to the
// trees rooted in it (spec §3's "destroy cascades" invariant), since trees
// live in a separate registry keyed by TID.
func (r *SessionRegistry) Destroy(uid uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, uid)
}

// Search is created by TRANS2_FIND_FIRST2, scoped to the owning session.
// Entries holds the full directory listing matched against Pattern at
// creation time; Cursor is the index of the next entry TRANS2_FIND_NEXT2
// resumes from.
type Search struct {
	SID     uint16
	Pattern string
	Level   uint16
	Cursor  int
	Entries []spi.FileInfo
}

// CreateSearch allocates a SID scoped to this session and stores the
// matched entries for later TRANS2_FIND_NEXT2 calls to page through.
func (s *Session) CreateSearch(pattern string, level uint16, entries []spi.FileInfo) *Search {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		s.nextSID++
		if s.nextSID == 0 {
			continue
		}
		if _, exists := s.searches[s.nextSID]; !exists {
			break
		}
	}
	search := &Search{SID: s.nextSID, Pattern: pattern, Level: level, Entries: entries}
	s.searches[search.SID] = search
	return search
}

func (s *Session) LookupSearch(sid uint16) (*Search, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sr, ok := s.searches[sid]
	return sr, ok
}

func (s *Session) CloseSearch(sid uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.searches, sid)
}

// AllSearchIDs returns a snapshot of open SIDs, used to close every search
// belonging to a session on LOGOFF_ANDX.
func (s *Session) AllSearchIDs() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uint16, 0, len(s.searches))
	for id := range s.searches {
		ids = append(ids, id)
	}
	return ids
}
