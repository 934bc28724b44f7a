package functional

import "math/bits"

// bitReverseOrder is the fixed residue order the original start-table
// construction interleaves over: residues mod 8 taken in this sequence,
// each expanded into its arithmetic progression.
var bitReverseOrder = [8]int{0, 4, 2, 6, 1, 5, 3, 7}

// bitReverseTable returns bit_reverse[j] for j in [0, 2^lN): reverse the
// low (lN-1) bits of j. Cached per lN since a program typically replays
// the same pmd across many ntt/intt instructions.
func (m *Model) bitReverseTable(lN int) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.bitReverseCache[lN]; ok {
		return t
	}
	n := 1 << uint(lN)
	mod := uint(lN - 1)
	t := make([]int, n)
	for j := 0; j < n; j++ {
		t[j] = int(bits.Reverse32(uint32(j)) >> (32 - mod))
	}
	m.bitReverseCache[lN] = t
	return t
}

// startTable returns start_table[0..increment): for r = 0,4,2,6,1,5,3,7 in
// order, the arithmetic progression r, r+8, r+16, ... truncated to
// < increment, concatenated. Cached per increment.
func (m *Model) startTable(increment int) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.startTableCache[increment]; ok {
		return t
	}
	var out []int
	for _, r := range bitReverseOrder {
		for v := r; v < increment; v += 8 {
			out = append(out, v)
		}
	}
	m.startTableCache[increment] = out
	return out
}

// readLane returns the value at packed index idx, split across two
// half-width registers at halfBlock, per the ntt/intt "bind by the same
// index rule" addressing (§4.F steps 5/2).
func readLane(reg0, reg1 []uint32, idx, halfBlock int) uint32 {
	if idx < halfBlock {
		return reg0[idx]
	}
	return reg1[idx-halfBlock]
}

// writeLane is readLane's write-side counterpart.
func writeLane(reg0, reg1 []uint32, idx, halfBlock int, v uint32) {
	if idx < halfBlock {
		reg0[idx] = v
	} else {
		reg1[idx-halfBlock] = v
	}
}
