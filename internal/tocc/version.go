package tocc

// Version is one (key, version) record in a key's chain. Key, Seq and Wts
// never change after creation; Rts is raised by reads and Val is overwritten
// in place by a same-timestamp write, and only the owning Store's per-key
// guard may touch them — see store.go.
type Version struct {
	Key int
	Val int64

	// Seq is the record's index within its key's chain; chain[0] is always
	// Seq 0.
	Seq uint64

	// Wts is the write timestamp: the committing transaction's ts. Strictly
	// increasing across a key's chain.
	Wts uint64

	// Rts is the maximum ts of any transaction that has read this version.
	// Monotonically non-decreasing; only mutated under the owning key's
	// guard, in Store.Read.
	Rts uint64
}

func newVersion(key int, val int64, seq, wts, rts uint64) *Version {
	return &Version{Key: key, Val: val, Seq: seq, Wts: wts, Rts: rts}
}
