// Package prng provides the seeded random stream shared by every player of a
// game. The stream matches the ARC4-based seedrandom generator used by the web
// client, so a seed reproduces the same piece order on both sides.
package prng

import (
	"strconv"
	"unicode/utf16"
)

const (
	width       = 256
	mask        = width - 1
	chunks      = 6
	startDenom  = 281474976710656.0  // 256^6
	significand = 4503599627370496.0 // 2^52
	overflow    = 9007199254740992.0 // 2^53
)

// Rand is a deterministic stream of float64 values in [0, 1).
// It is not safe for concurrent use.
type Rand struct {
	i, j uint8
	s    [width]uint8
}

// New seeds a stream from a string seed.
func New(seed string) *Rand {
	return newARC4(mixKey(seed))
}

// FromInt seeds a stream from an integer, flattened the way a numeric seed is.
func FromInt(seed int64) *Rand {
	return New(IntSeed(seed))
}

// IntSeed returns the string form of an integer seed.
func IntSeed(seed int64) string {
	return strconv.FormatInt(seed, 10) + "\x00"
}

// Float64 returns the next value of the stream.
func (r *Rand) Float64() float64 {
	n := float64(r.next(chunks))
	d := startDenom
	x := uint64(0)
	for n < significand {
		n = (n + float64(x)) * width
		d *= width
		x = r.next(1)
	}
	for n >= overflow {
		n /= 2
		d /= 2
		x >>= 1
	}
	return (n + float64(x)) / d
}

// Intn returns a value in [0, n) using one draw.
func (r *Rand) Intn(n int) int {
	return int(r.Float64() * float64(n))
}

func newARC4(key []int) *Rand {
	if len(key) == 0 {
		key = []int{0}
	}
	r := &Rand{}
	for i := range r.s {
		r.s[i] = uint8(i)
	}
	j := 0
	for i := 0; i < width; i++ {
		t := r.s[i]
		j = mask & (j + key[i%len(key)] + int(t))
		r.s[i] = r.s[j]
		r.s[j] = t
	}
	r.next(width)
	return r
}

func (r *Rand) next(count int) uint64 {
	var out uint64
	i, j := r.i, r.j
	for ; count > 0; count-- {
		i++
		t := r.s[i]
		j += t
		r.s[i] = r.s[j]
		r.s[j] = t
		out = out*width + uint64(r.s[r.s[i]+r.s[j]])
	}
	r.i, r.j = i, j
	return out
}

func mixKey(seed string) []int {
	units := utf16.Encode([]rune(seed))
	var key []int
	smear := 0
	for j, u := range units {
		idx := mask & j
		for len(key) <= idx {
			key = append(key, 0)
		}
		smear ^= key[idx] * 19
		key[idx] = mask & (smear + int(u))
	}
	return key
}
