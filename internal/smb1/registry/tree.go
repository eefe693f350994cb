package registry

import (
	"sync"

	"github.com/oxbowlabs/smb1d/internal/smb1/types"
)

// Tree is created by TREE_CONNECT_ANDX against a named share.
type Tree struct {
	TID         uint16
	Share       string
	ServiceKind types.ShareType
	SessionUID  uint16

	mu        sync.Mutex
	files     map[uint16]*File
	nextFID   uint16
	listeners map[uint16]*ChangeListener // keyed by MID
}

// TreeRegistry issues process-wide unique 16-bit TIDs.
type TreeRegistry struct {
	mu      sync.RWMutex
	trees   map[uint16]*Tree
	nextTID uint32
}

func NewTreeRegistry() *TreeRegistry {
	return &TreeRegistry{trees: make(map[uint16]*Tree)}
}

func (r *TreeRegistry) Create(share string, kind types.ShareType, sessionUID uint16) *Tree {
	r.mu.Lock()
	defer r.mu.Unlock()

	tid := r.allocateTIDLocked()
	t := &Tree{
		TID:         tid,
		Share:       share,
		ServiceKind: kind,
		SessionUID:  sessionUID,
		files:       make(map[uint16]*File),
		listeners:   make(map[uint16]*ChangeListener),
	}
	r.trees[tid] = t
	return t
}

func (r *TreeRegistry) allocateTIDLocked() uint16 {
	for {
		r.nextTID++
		candidate := uint16(r.nextTID)
		if _, exists := r.trees[candidate]; !exists {
			return candidate
		}
	}
}

func (r *TreeRegistry) Lookup(tid uint16) (*Tree, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trees[tid]
	return t, ok
}

// Destroy removes a tree. Callers must first cascade file-close and
// listener-deregistration over AllFiles and AllListeners, per spec §3's
// ownership rule
// that disconnecting a tree closes every file and listener it owns.
func (r *TreeRegistry) Destroy(tid uint16) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trees, tid)
}

// AllForSession returns a snapshot of every tree rooted in the given
// session, used to cascade LOGOFF_ANDX.
func (r *TreeRegistry) AllForSession(uid uint16) []*Tree {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Tree
	for _, t := range r.trees {
		if t.SessionUID == uid {
			out = append(out, t)
		}
	}
	return out
}

// CreateFile allocates a FID scoped to this tree. The reserved value
// 0xFFFF ("all files in this tree") is never issued.
func (t *Tree) CreateFile(path string, providerFile any, createAction uint32, attrs types.FileAttributes) *File {
	t.mu.Lock()
	defer t.mu.Unlock()

	for {
		t.nextFID++
		if t.nextFID == 0xFFFF {
			continue
		}
		if _, exists := t.files[t.nextFID]; !exists {
			break
		}
	}
	f := &File{
		FID:          t.nextFID,
		TreeTID:      t.TID,
		Path:         path,
		Provider:     providerFile,
		CreateAction: createAction,
		Attributes:   attrs,
	}
	t.files[f.FID] = f
	return f
}

func (t *Tree) LookupFile(fid uint16) (*File, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.files[fid]
	return f, ok
}

func (t *Tree) CloseFile(fid uint16) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.files, fid)
}

// AllFiles returns a snapshot of every open FID, used by FLUSH with
// FID 0xFFFF and by tree teardown.
func (t *Tree) AllFiles() []*File {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*File, 0, len(t.files))
	for _, f := range t.files {
		out = append(out, f)
	}
	return out
}

// RegisterListener adds a change-listener keyed by its owning MID.
func (t *Tree) RegisterListener(l *ChangeListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners[l.MID] = l
}

// DeregisterListener removes a listener silently and reports whether one
// was registered under mid.
func (t *Tree) DeregisterListener(mid uint16) (*ChangeListener, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.listeners[mid]
	if ok {
		delete(t.listeners, mid)
	}
	return l, ok
}

// AllListeners returns a snapshot of every active listener, used to drop
// them silently on tree disconnect.
func (t *Tree) AllListeners() []*ChangeListener {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*ChangeListener, 0, len(t.listeners))
	for _, l := range t.listeners {
		out = append(out, l)
	}
	return out
}
