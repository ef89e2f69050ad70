/*
 * Copyright 2022 ByteDance Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package stamp

import (
    `fmt`
    `math`
)

// IntegerStamp is a signed range [lower, upper] of a fixed-width integer.
// A range with lower > upper is empty.
type IntegerStamp struct {
    bits  uint8
    lower int64
    upper int64
}

func checkBits(bits uint8) {
    switch bits {
        case 8, 16, 32, 64 : break
        default            : panic(fmt.Sprintf("stamp: invalid integer width: %d", bits))
    }
}

// MinValue returns the smallest signed value representable in bits.
func MinValue(bits uint8) int64 {
    if bits >= 64 {
        return math.MinInt64
    } else {
        return -(1 << (bits - 1))
    }
}

// MaxValue returns the largest signed value representable in bits.
func MaxValue(bits uint8) int64 {
    if bits >= 64 {
        return math.MaxInt64
    } else {
        return (1 << (bits - 1)) - 1
    }
}

// SignExtend truncates v to bits and sign-extends it back to 64 bits.
func SignExtend(v int64, bits uint8) int64 {
    if bits >= 64 {
        return v
    } else {
        return (v << (64 - bits)) >> (64 - bits)
    }
}

// UnsignedMask returns the mask covering all bits of the width.
func UnsignedMask(bits uint8) uint64 {
    if bits >= 64 {
        return math.MaxUint64
    } else {
        return (1 << bits) - 1
    }
}

// ForRange creates a stamp for [lower, upper], clamped to the width.
func ForRange(bits uint8, lower int64, upper int64) IntegerStamp {
    checkBits(bits)
    lo, hi := MinValue(bits), MaxValue(bits)

    /* clamp to the representable range */
    if lower < lo { lower = lo }
    if upper > hi { upper = hi }

    /* normalize the empty range */
    if lower > upper {
        return EmptyInt(bits)
    } else {
        return IntegerStamp { bits: bits, lower: lower, upper: upper }
    }
}

// ForConstant creates the single-value stamp {v}.
func ForConstant(bits uint8, v int64) IntegerStamp {
    v = SignExtend(v, bits)
    return ForRange(bits, v, v)
}

// UnrestrictedInt is the top of the integer lattice for the given width.
func UnrestrictedInt(bits uint8) IntegerStamp {
    return ForRange(bits, MinValue(bits), MaxValue(bits))
}

// EmptyInt is the bottom of the integer lattice for the given width.
func EmptyInt(bits uint8) IntegerStamp {
    checkBits(bits)
    return IntegerStamp { bits: bits, lower: 1, upper: 0 }
}

// Boolean is the stamp of a condition value.
func Boolean() IntegerStamp {
    return ForRange(32, 0, 1)
}

// Word is the stamp of a machine word, such as an address.
func Word() IntegerStamp {
    return UnrestrictedInt(64)
}

func (self IntegerStamp) Kind() Kind    { return KindInt }
func (self IntegerStamp) Bits() uint8   { return self.bits }
func (self IntegerStamp) Lower() int64  { return self.lower }
func (self IntegerStamp) Upper() int64  { return self.upper }
func (self IntegerStamp) IsEmpty() bool { return self.lower > self.upper }

func (self IntegerStamp) IsUnrestricted() bool {
    return self.lower == MinValue(self.bits) && self.upper == MaxValue(self.bits)
}

// Constant returns the only value of a single-value stamp.
func (self IntegerStamp) Constant() (int64, bool) {
    if self.lower == self.upper {
        return self.lower, true
    } else {
        return 0, false
    }
}

// Contains reports whether v is one of the values described.
func (self IntegerStamp) Contains(v int64) bool {
    return v >= self.lower && v <= self.upper
}

// IsNonNegative reports whether every value is >= 0.
func (self IntegerStamp) IsNonNegative() bool {
    return !self.IsEmpty() && self.lower >= 0
}

// Generality is the number of values described, saturated at MaxUint64.
func (self IntegerStamp) Generality() uint64 {
    if self.IsEmpty() {
        return 0
    } else if d := uint64(self.upper - self.lower); d == math.MaxUint64 {
        return d
    } else {
        return d + 1
    }
}

func (self IntegerStamp) String() string {
    if self.IsEmpty() {
        return fmt.Sprintf("i%d ⊥", self.bits)
    } else if self.lower == self.upper {
        return fmt.Sprintf("i%d [%d]", self.bits, self.lower)
    } else if self.IsUnrestricted() {
        return fmt.Sprintf("i%d", self.bits)
    } else {
        return fmt.Sprintf("i%d [%d, %d]", self.bits, self.lower, self.upper)
    }
}

func (self IntegerStamp) Equal(other Stamp) bool {
    if v, ok := other.(IntegerStamp); !ok || v.bits != self.bits {
        return false
    } else if self.IsEmpty() || v.IsEmpty() {
        return self.IsEmpty() == v.IsEmpty()
    } else {
        return self.lower == v.lower && self.upper == v.upper
    }
}

func (self IntegerStamp) Meet(other Stamp) Stamp {
    switch v := other.(type) {
        case BottomStamp: {
            return EmptyInt(self.bits)
        }

        /* intersect the ranges */
        case IntegerStamp: {
            if v.bits != self.bits {
                return Illegal()
            } else if self.IsEmpty() || v.IsEmpty() {
                return EmptyInt(self.bits)
            } else {
                return ForRange(self.bits, max64(self.lower, v.lower), min64(self.upper, v.upper))
            }
        }

        /* incompatible stamps */
        default: {
            return Illegal()
        }
    }
}

func (self IntegerStamp) Join(other Stamp) Stamp {
    switch v := other.(type) {
        case BottomStamp: {
            return self
        }

        /* unite the ranges */
        case IntegerStamp: {
            if v.bits != self.bits {
                return Illegal()
            } else if self.IsEmpty() {
                return v
            } else if v.IsEmpty() {
                return self
            } else {
                return ForRange(self.bits, min64(self.lower, v.lower), max64(self.upper, v.upper))
            }
        }

        /* incompatible stamps */
        default: {
            return Illegal()
        }
    }
}

func min64(a int64, b int64) int64 {
    if a < b {
        return a
    } else {
        return b
    }
}

func max64(a int64, b int64) int64 {
    if a > b {
        return a
    } else {
        return b
    }
}
