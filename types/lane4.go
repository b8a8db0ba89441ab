package types

import "github.com/chewxy/math32"

// Lane4 is a 4-wide float vector. All BVH slab tests are written against
// this type so that traversal code does not depend on a particular SIMD
// instruction set; the operations below compile to plain scalar code.
type Lane4 [4]float32

// Mask4 holds one bit per Lane4 lane.
type Mask4 uint8

// All lanes set.
const MaskAll Mask4 = 0xF

// Broadcast a scalar to all lanes.
func Splat4(v float32) Lane4 {
	return Lane4{v, v, v, v}
}

func (a Lane4) Add(b Lane4) Lane4 {
	return Lane4{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func (a Lane4) Sub(b Lane4) Lane4 {
	return Lane4{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}

func (a Lane4) Mul(b Lane4) Lane4 {
	return Lane4{a[0] * b[0], a[1] * b[1], a[2] * b[2], a[3] * b[3]}
}

// Lane-wise minimum. A NaN lane yields the other operand so that a slab
// test for a ray travelling inside a box face plane (0 * Inf) does not
// poison the reduction.
func Min4(a, b Lane4) Lane4 {
	return Lane4{MinNum(a[0], b[0]), MinNum(a[1], b[1]), MinNum(a[2], b[2]), MinNum(a[3], b[3])}
}

// Lane-wise maximum. NaN lanes are handled like Min4.
func Max4(a, b Lane4) Lane4 {
	return Lane4{MaxNum(a[0], b[0]), MaxNum(a[1], b[1]), MaxNum(a[2], b[2]), MaxNum(a[3], b[3])}
}

// Horizontal minimum ignoring NaN lanes.
func (a Lane4) HMin() float32 {
	return MinNum(MinNum(a[0], a[1]), MinNum(a[2], a[3]))
}

// Horizontal maximum ignoring NaN lanes.
func (a Lane4) HMax() float32 {
	return MaxNum(MaxNum(a[0], a[1]), MaxNum(a[2], a[3]))
}

// Get the smaller of a and b. If one of them is NaN the other is returned.
func MinNum(a, b float32) float32 {
	switch {
	case math32.IsNaN(a):
		return b
	case math32.IsNaN(b):
		return a
	}
	return math32.Min(a, b)
}

// Get the larger of a and b. If one of them is NaN the other is returned.
func MaxNum(a, b float32) float32 {
	switch {
	case math32.IsNaN(a):
		return b
	case math32.IsNaN(b):
		return a
	}
	return math32.Max(a, b)
}

// Lane-wise a <= b.
func (a Lane4) Le(b Lane4) Mask4 {
	var m Mask4
	for i := 0; i < 4; i++ {
		if a[i] <= b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

// Lane-wise a < b.
func (a Lane4) Lt(b Lane4) Mask4 {
	var m Mask4
	for i := 0; i < 4; i++ {
		if a[i] < b[i] {
			m |= 1 << uint(i)
		}
	}
	return m
}

// Lane-wise a >= b.
func (a Lane4) Ge(b Lane4) Mask4 {
	return b.Le(a)
}

// Pick lanes from a where the mask is set and from b otherwise.
func Select4(m Mask4, a, b Lane4) Lane4 {
	var out Lane4
	for i := 0; i < 4; i++ {
		if m.Lane(i) {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
	return out
}

// Check whether lane i is set.
func (m Mask4) Lane(i int) bool {
	return m&(1<<uint(i)) != 0
}

// Check whether any lane is set.
func (m Mask4) Any() bool {
	return m&MaskAll != 0
}

// Count set lanes.
func (m Mask4) Count() int {
	n := 0
	for i := 0; i < 4; i++ {
		if m.Lane(i) {
			n++
		}
	}
	return n
}
