// Package tt implements dynamic truth tables over up to 16 variables.
package tt

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"github.com/pkg/errors"
)

const MaxVars = 16

// TT is a truth table over NrVars variables: bit m holds the function
// value for the input assignment encoded by minterm index m.
type TT struct {
	nrVars int
	bits   *bitset.BitSet
}

func New(nrVars int) TT {
	if nrVars < 0 || nrVars > MaxVars {
		panic(fmt.Sprintf("tt: unsupported variable count %d", nrVars))
	}
	return TT{
		nrVars: nrVars,
		bits:   bitset.New(uint(1) << uint(nrVars)),
	}
}

// NthVar returns the projection function of the i-th input variable.
func NthVar(nrVars, i int) TT {
	t := New(nrVars)
	for m := 0; m < t.NrBits(); m++ {
		if (m>>uint(i))&1 == 1 {
			t.bits.Set(uint(m))
		}
	}
	return t
}

// Majority returns the majority function of nrVars inputs.
func Majority(nrVars int) TT {
	t := New(nrVars)
	for m := 0; m < t.NrBits(); m++ {
		if popcount(m) > nrVars/2 {
			t.bits.Set(uint(m))
		}
	}
	return t
}

// FromWords builds a table from 64-bit words, least significant word
// first, least significant bit first.
func FromWords(nrVars int, words ...uint64) TT {
	t := New(nrVars)
	for m := 0; m < t.NrBits(); m++ {
		w := words[m/64]
		if (w>>(uint(m)%64))&1 == 1 {
			t.bits.Set(uint(m))
		}
	}
	return t
}

// FromHex parses a table from a hex string, most significant digit
// first. The string must cover exactly 2^nrVars bits, except that a
// single digit is accepted for tables shorter than four bits.
func FromHex(nrVars int, s string) (TT, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	t := New(nrVars)
	nrDigits := t.NrBits() / 4
	if nrDigits == 0 {
		nrDigits = 1
	}
	if len(s) != nrDigits {
		return TT{}, errors.Errorf("tt: expected %d hex digits for %d variables, got %d", nrDigits, nrVars, len(s))
	}
	for pos, c := range s {
		var d uint64
		switch {
		case c >= '0' && c <= '9':
			d = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint64(c-'a') + 10
		default:
			return TT{}, errors.Errorf("tt: invalid hex digit %q", c)
		}
		base := 4 * (len(s) - 1 - pos)
		for b := 0; b < 4; b++ {
			m := base + b
			if m < t.NrBits() && (d>>uint(b))&1 == 1 {
				t.bits.Set(uint(m))
			}
		}
	}
	return t, nil
}

func (t TT) NrVars() int { return t.nrVars }

func (t TT) NrBits() int { return 1 << uint(t.nrVars) }

func (t TT) GetBit(m int) bool { return t.bits.Test(uint(m)) }

func (t TT) CountOnes() int { return int(t.bits.Count()) }

func (t TT) Clone() TT {
	return TT{nrVars: t.nrVars, bits: t.bits.Clone()}
}

func (t TT) SetBit(m int, v bool) TT {
	r := t.Clone()
	if v {
		r.bits.Set(uint(m))
	} else {
		r.bits.Clear(uint(m))
	}
	return r
}

func (t TT) Equal(o TT) bool {
	return t.nrVars == o.nrVars && t.bits.Equal(o.bits)
}

func (t TT) And(o TT) TT {
	return TT{nrVars: t.nrVars, bits: t.bits.Intersection(o.bits)}
}

func (t TT) Or(o TT) TT {
	return TT{nrVars: t.nrVars, bits: t.bits.Union(o.bits)}
}

func (t TT) Xor(o TT) TT {
	return TT{nrVars: t.nrVars, bits: t.bits.SymmetricDifference(o.bits)}
}

func (t TT) Not() TT {
	return TT{nrVars: t.nrVars, bits: t.bits.Clone().Complement()}
}

// Maj3 returns the ternary majority of three tables.
func Maj3(a, b, c TT) TT {
	return a.And(b).Or(a.And(c)).Or(b.And(c))
}

func (t TT) IsConst0() bool { return t.bits.Count() == 0 }

func (t TT) IsConst1() bool { return int(t.bits.Count()) == t.NrBits() }

// IsNthVar reports whether t is the projection of input i.
func (t TT) IsNthVar(i int) bool {
	return t.Equal(NthVar(t.nrVars, i))
}

func (t TT) IsNthVarInv(i int) bool {
	return t.Equal(NthVar(t.nrVars, i).Not())
}

// Word returns the low 64 bits of the table.
func (t TT) Word() uint64 {
	var w uint64
	n := t.NrBits()
	if n > 64 {
		n = 64
	}
	for m := 0; m < n; m++ {
		if t.bits.Test(uint(m)) {
			w |= 1 << uint(m)
		}
	}
	return w
}

// String renders the table in hex, most significant digit first.
func (t TT) String() string {
	nrDigits := t.NrBits() / 4
	if nrDigits == 0 {
		nrDigits = 1
	}
	var sb strings.Builder
	for pos := nrDigits - 1; pos >= 0; pos-- {
		var d int
		for b := 3; b >= 0; b-- {
			m := 4*pos + b
			d <<= 1
			if m < t.NrBits() && t.bits.Test(uint(m)) {
				d |= 1
			}
		}
		fmt.Fprintf(&sb, "%x", d)
	}
	return sb.String()
}

func popcount(m int) int {
	c := 0
	for ; m != 0; m >>= 1 {
		c += m & 1
	}
	return c
}
