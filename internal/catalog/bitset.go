package catalog

import "math/bits"

// Bitset is a fixed-width set of attribute positions.
type Bitset []uint64

func NewBitset(n int) Bitset {
	return make(Bitset, (n+63)/64)
}

func (b Bitset) Set(i int) {
	b[i/64] |= 1 << (uint(i) % 64)
}

func (b Bitset) Clear(i int) {
	b[i/64] &^= 1 << (uint(i) % 64)
}

func (b Bitset) Has(i int) bool {
	if i/64 >= len(b) {
		return false
	}
	return b[i/64]&(1<<(uint(i)%64)) != 0
}

// Count returns the number of set positions.
func (b Bitset) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}

// AndCount returns the size of the intersection of b and o.
func (b Bitset) AndCount(o Bitset) int {
	n := 0
	for i := 0; i < len(b) && i < len(o); i++ {
		n += bits.OnesCount64(b[i] & o[i])
	}
	return n
}

// XorCount returns the number of positions where b and o differ.
func (b Bitset) XorCount(o Bitset) int {
	n := 0
	for i := 0; i < len(b) || i < len(o); i++ {
		var x, y uint64
		if i < len(b) {
			x = b[i]
		}
		if i < len(o) {
			y = o[i]
		}
		n += bits.OnesCount64(x ^ y)
	}
	return n
}

func (b Bitset) Intersects(o Bitset) bool {
	for i := 0; i < len(b) && i < len(o); i++ {
		if b[i]&o[i] != 0 {
			return true
		}
	}
	return false
}

func (b Bitset) Clone() Bitset {
	c := make(Bitset, len(b))
	copy(c, b)
	return c
}
