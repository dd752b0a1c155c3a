package tocc

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/tidwall/btree"
)

// keyChain is one key's ordered version history, kept in a btree.Map keyed
// by wts so visible-version lookup is a floor search instead of a linear
// scan.
//
// mu is the per-key guard every read, write, and visible-version lookup for
// this key runs under, held for the duration of a single Store operation
// only — never across instructions or across keys, which is what keeps two
// transactions from ever deadlocking on each other.
type keyChain struct {
	mu   sync.Mutex
	tree btree.Map[uint64, *Version]
	last *Version
}

// Store is the shared, thread-safe mapping key -> version chain. The zero
// value is not usable; construct with NewStore.
type Store struct {
	chainsMu sync.RWMutex
	chains   map[int]*keyChain

	logger *slog.Logger
}

// NewStore creates an empty Store. opts configures logging; keys must be
// added with Seed before Read/Write will recognize them.
func NewStore(opts ...Option) *Store {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Store{
		chains: make(map[int]*keyChain),
		logger: cfg.logger,
	}
}

// Seed initializes keys 1..=n with random values in [0, 50], each as
// chain[0] with wts=0, rts=0.
func (s *Store) Seed(n int) {
	s.chainsMu.Lock()
	defer s.chainsMu.Unlock()
	for key := 1; key <= n; key++ {
		val := int64(rand.IntN(51))
		kc := &keyChain{}
		v0 := newVersion(key, val, 0, 0, 0)
		kc.tree.Set(0, v0)
		kc.last = v0
		s.chains[key] = kc
	}
}

func (s *Store) chain(key int) (*keyChain, bool) {
	s.chainsMu.RLock()
	kc, ok := s.chains[key]
	s.chainsMu.RUnlock()
	return kc, ok
}

// visibleVersionLocked returns the version of kc with the largest wts <= ts.
// Caller must hold kc.mu.
func (kc *keyChain) visibleVersionLocked(ts uint64) *Version {
	var found *Version
	kc.tree.Descend(ts, func(_ uint64, v *Version) bool {
		found = v
		return false // stop at the first (largest <= ts) hit
	})
	if found == nil {
		// chain[0].wts == 0 <= any ts, so this only triggers if the chain is
		// somehow empty.
		if _, v0, ok := kc.tree.Min(); ok {
			return v0
		}
	}
	return found
}

// VisibleVersion returns the version of key with the largest wts <= ts.
func (s *Store) VisibleVersion(key int, ts uint64) (*Version, error) {
	kc, ok := s.chain(key)
	if !ok {
		return nil, newProgramError(0, fmt.Sprintf("key %d does not exist", key))
	}
	kc.mu.Lock()
	defer kc.mu.Unlock()
	return kc.visibleVersionLocked(ts), nil
}

// Read bumps v.rts to max(v.rts, ts) and returns v.val. Reads never roll
// back.
func (s *Store) Read(key int, txID, ts uint64) (int64, error) {
	kc, ok := s.chain(key)
	if !ok {
		return 0, newProgramError(txID, fmt.Sprintf("read of nonexistent key %d", key))
	}
	kc.mu.Lock()
	defer kc.mu.Unlock()

	v := kc.visibleVersionLocked(ts)
	if ts > v.Rts {
		v.Rts = ts
	}
	s.logger.Debug("read", "txid", txID, "ts", ts, "key", key, "wts", v.Wts, "val", v.Val)
	return v.Val, nil
}

// Write applies the rollback, overwrite, and append rules in order.
func (s *Store) Write(key int, newVal int64, txID, ts uint64) error {
	kc, ok := s.chain(key)
	if !ok {
		return newProgramError(txID, fmt.Sprintf("write of nonexistent key %d", key))
	}
	kc.mu.Lock()
	defer kc.mu.Unlock()

	v := kc.visibleVersionLocked(ts)

	switch {
	case v.Rts > ts:
		// A later-timestamped reader has already observed a view this write
		// would precede. Roll back the writer, not the reader.
		s.logger.Debug("rollback", "txid", txID, "ts", ts, "key", key, "reader_rts", v.Rts)
		return errRollback

	case v.Wts == ts:
		// Thomas write rule: this transaction already owns this version
		// slot; overwrite in place instead of appending a duplicate.
		v.Val = newVal
		s.logger.Debug("overwrite", "txid", txID, "ts", ts, "key", key, "val", newVal)
		return nil

	default:
		// Append a new version.
		if ts <= kc.last.Wts {
			return &InvariantViolation{Key: key, Detail: fmt.Sprintf("non-monotonic wts: new ts %d <= existing wts %d", ts, kc.last.Wts)}
		}
		nv := newVersion(key, newVal, kc.last.Seq+1, ts, ts)
		kc.tree.Set(ts, nv)
		kc.last = nv
		s.logger.Debug("write", "txid", txID, "ts", ts, "key", key, "version", nv.Seq, "val", newVal)
		return nil
	}
}

// ChainEntry is a read-only view of one version, for Snapshot.
type ChainEntry struct {
	Seq uint64
	Val int64
	Wts uint64
	Rts uint64
}

// Snapshot returns a read-only copy of every key's chain, ordered by wts.
// For diagnostics and tests; never called from the hot path.
func (s *Store) Snapshot() map[int][]ChainEntry {
	s.chainsMu.RLock()
	chains := make(map[int]*keyChain, len(s.chains))
	for k, kc := range s.chains {
		chains[k] = kc
	}
	s.chainsMu.RUnlock()

	out := make(map[int][]ChainEntry, len(chains))
	for k, kc := range chains {
		kc.mu.Lock()
		entries := make([]ChainEntry, 0, kc.tree.Len())
		kc.tree.Scan(func(wts uint64, v *Version) bool {
			entries = append(entries, ChainEntry{Seq: v.Seq, Val: v.Val, Wts: v.Wts, Rts: v.Rts})
			return true
		})
		kc.mu.Unlock()
		out[k] = entries
	}
	return out
}

// KeyExists reports whether key was seeded into the Store.
func (s *Store) KeyExists(key int) bool {
	_, ok := s.chain(key)
	return ok
}
