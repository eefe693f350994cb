package registry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oxbowlabs/smb1d/internal/smb1/types"
)

func TestSessionRegistryNeverIssuesUIDZero(t *testing.T) {
	reg := NewSessionRegistry()
	for i := 0; i < 8; i++ {
		s := reg.Create("alice", "WORKGROUP", 1, nil)
		require.NotZero(t, s.UID)
	}
}

func TestSessionRegistryUIDsUnique(t *testing.T) {
	reg := NewSessionRegistry()
	seen := make(map[uint16]bool)
	for i := 0; i < 100; i++ {
		s := reg.Create("alice", "WORKGROUP", 1, nil)
		require.False(t, seen[s.UID])
		seen[s.UID] = true
	}
}

func TestSessionRegistryDestroyMakesUIDUnresolvable(t *testing.T) {
	reg := NewSessionRegistry()
	s := reg.Create("alice", "WORKGROUP", 1, nil)
	reg.Destroy(s.UID)
	_, ok := reg.Lookup(s.UID)
	require.False(t, ok)
}

func TestSessionRegistryUIDZeroLookupFails(t *testing.T) {
	reg := NewSessionRegistry()
	_, ok := reg.Lookup(0)
	require.False(t, ok)
}

func TestTreeRegistryFileFIDNeverReserved(t *testing.T) {
	treg := NewTreeRegistry()
	tree := treg.Create("share", types.ShareTypeDisk, 1)
	for i := 0; i < 4; i++ {
		f := tree.CreateFile("", nil, 0, 0)
		require.NotEqual(t, AllFilesFID, f.FID)
	}
}

func TestTreeCloseFileMakesFIDUnresolvable(t *testing.T) {
	treg := NewTreeRegistry()
	tree := treg.Create("share", types.ShareTypeDisk, 1)
	f := tree.CreateFile("", nil, 0, 0)
	tree.CloseFile(f.FID)
	_, ok := tree.LookupFile(f.FID)
	require.False(t, ok)
}

func TestTreeListenerDeregisterIsIdempotent(t *testing.T) {
	treg := NewTreeRegistry()
	tree := treg.Create("share", types.ShareTypeDisk, 1)
	l := &ChangeListener{TID: tree.TID, MID: 7}
	tree.RegisterListener(l)

	got, ok := tree.DeregisterListener(7)
	require.True(t, ok)
	require.Same(t, l, got)

	_, ok = tree.DeregisterListener(7)
	require.False(t, ok)
}

func TestSessionSearchSIDsScopedToSession(t *testing.T) {
	reg := NewSessionRegistry()
	s := reg.Create("alice", "WORKGROUP", 1, nil)
	search := s.CreateSearch("*.txt", 1, nil)
	require.NotZero(t, search.SID)

	_, ok := s.LookupSearch(search.SID)
	require.True(t, ok)

	s.CloseSearch(search.SID)
	_, ok = s.LookupSearch(search.SID)
	require.False(t, ok)
}

func TestLoginRegistryAnonymousHasZeroKey(t *testing.T) {
	reg := NewLoginRegistry()
	l := reg.Create(nil)
	require.True(t, l.Anonymous)
	require.Zero(t, l.Key)
}

func TestLoginRegistryNonAnonymousKeysUnique(t *testing.T) {
	reg := NewLoginRegistry()
	a := reg.Create([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	b := reg.Create([]byte{8, 7, 6, 5, 4, 3, 2, 1})
	require.NotEqual(t, a.Key, b.Key)
	require.NotZero(t, a.Key)
	require.NotZero(t, b.Key)
}
