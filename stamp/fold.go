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
    `math/bits`
)

// Op enumerates the operators stamps can be folded through.
type Op uint8

const (
    OpAdd Op = iota
    OpSub
    OpMul
    OpAnd
    OpOr
    OpXor
    OpShl
    OpShr
    OpUShr
    OpNeg
    OpNot
    OpEq
    OpLt
    OpLtu
    OpRefine
)

func (self Op) String() string {
    switch self {
        case OpAdd    : return "+"
        case OpSub    : return "-"
        case OpMul    : return "*"
        case OpAnd    : return "&"
        case OpOr     : return "|"
        case OpXor    : return "^"
        case OpShl    : return "<<"
        case OpShr    : return ">>"
        case OpUShr   : return ">>>"
        case OpNeg    : return "neg"
        case OpNot    : return "not"
        case OpEq     : return "=="
        case OpLt     : return "<"
        case OpLtu    : return "<#"
        case OpRefine : return "refine"
        default       : return fmt.Sprintf("op(%d)", uint8(self))
    }
}

// IsCompare reports whether the operator produces a condition value.
func (self Op) IsCompare() bool {
    return self == OpEq || self == OpLt || self == OpLtu
}

// IsShift reports whether the right operand is a shift distance.
func (self Op) IsShift() bool {
    return self == OpShl || self == OpShr || self == OpUShr
}

// IsCommutative reports whether the operands may be swapped.
func (self Op) IsCommutative() bool {
    switch self {
        case OpAdd, OpMul, OpAnd, OpOr, OpXor, OpEq : return true
        default                                     : return false
    }
}

// Eval computes the concrete result of a binary operator at the given
// width, with two's complement wrap-around.
func Eval(op Op, width uint8, x int64, y int64) int64 {
    switch op {
        case OpAdd  : return SignExtend(x + y, width)
        case OpSub  : return SignExtend(x - y, width)
        case OpMul  : return SignExtend(x * y, width)
        case OpAnd  : return SignExtend(x & y, width)
        case OpOr   : return SignExtend(x | y, width)
        case OpXor  : return SignExtend(x ^ y, width)
        case OpShl  : return SignExtend(x << shiftOf(y, width), width)
        case OpShr  : return SignExtend(x, width) >> shiftOf(y, width)
        case OpUShr : return SignExtend(int64((uint64(x) & UnsignedMask(width)) >> shiftOf(y, width)), width)
        case OpEq   : return b2i(x == y)
        case OpLt   : return b2i(x < y)
        case OpLtu  : return b2i(uint64(x) & UnsignedMask(width) < uint64(y) & UnsignedMask(width))
        default     : panic(fmt.Sprintf("stamp: invalid binary operator: %s", op))
    }
}

// EvalUnary computes the concrete result of a unary operator.
func EvalUnary(op Op, width uint8, x int64) int64 {
    switch op {
        case OpNeg : return SignExtend(-x, width)
        case OpNot : return SignExtend(^x, width)
        default    : panic(fmt.Sprintf("stamp: invalid unary operator: %s", op))
    }
}

// Fold computes the most precise stamp for "a op b". Any empty operand
// produces an empty result, which is never an error.
func Fold(op Op, a Stamp, b Stamp) Stamp {
    if op == OpRefine {
        return a.Meet(b)
    }

    /* object comparisons are limited to null checks */
    if op == OpEq {
        if x, ok := a.(ObjectStamp); ok {
            return foldObjectEq(x, b)
        }
    }

    /* empty stamps without a kind */
    if a.IsEmpty() || b.IsEmpty() {
        if op.IsCompare() {
            return EmptyInt(32)
        } else {
            return EmptyOf(a)
        }
    }

    /* only integers beyond this point */
    x, ok1 := a.(IntegerStamp)
    y, ok2 := b.(IntegerStamp)

    /* both must be integers of the same width, except shift distances */
    if !ok1 || !ok2 || (x.bits != y.bits && !op.IsShift()) {
        return Illegal()
    }

    /* both are constants, fold exactly */
    if cx, ok := x.Constant(); ok {
        if cy, ok := y.Constant(); ok {
            if op.IsCompare() {
                return ForConstant(32, Eval(op, x.bits, cx, cy))
            } else {
                return ForConstant(x.bits, Eval(op, x.bits, cx, cy))
            }
        }
    }

    /* fold the ranges */
    switch op {
        case OpAdd  : return foldAdd(x, y)
        case OpSub  : return foldSub(x, y)
        case OpMul  : return foldMul(x, y)
        case OpAnd  : return foldAnd(x, y)
        case OpOr   : return foldOr(x, y)
        case OpXor  : return foldXor(x, y)
        case OpShl  : return foldShl(x, y)
        case OpShr  : return foldShr(x, y)
        case OpUShr : return foldUShr(x, y)
        case OpEq   : return foldEq(x, y)
        case OpLt   : return foldLt(x, y)
        case OpLtu  : return foldLtu(x, y)
        default     : panic(fmt.Sprintf("stamp: invalid binary operator: %s", op))
    }
}

// FoldUnary computes the most precise stamp for "op a".
func FoldUnary(op Op, a Stamp) Stamp {
    if a.IsEmpty() {
        return EmptyOf(a)
    }

    /* only integers are supported */
    x, ok := a.(IntegerStamp)
    if !ok {
        return Illegal()
    }

    /* constants fold exactly */
    if cx, ok := x.Constant(); ok {
        return ForConstant(x.bits, EvalUnary(op, x.bits, cx))
    }

    /* fold the range */
    switch op {
        case OpNeg: {
            if x.lower == MinValue(x.bits) {
                return UnrestrictedInt(x.bits)
            } else {
                return ForRange(x.bits, -x.upper, -x.lower)
            }
        }

        /* bitwise not is order-reversing and never overflows */
        case OpNot: {
            return ForRange(x.bits, ^x.upper, ^x.lower)
        }

        /* not a unary operator */
        default: {
            panic(fmt.Sprintf("stamp: invalid unary operator: %s", op))
        }
    }
}

func foldObjectEq(x ObjectStamp, b Stamp) Stamp {
    if b.IsEmpty() || x.IsEmpty() {
        return EmptyInt(32)
    }

    /* must compare two references */
    y, ok := b.(ObjectStamp)
    if !ok {
        return Illegal()
    }

    /* only nullness is known about references */
    if x.IsAlwaysNull() && y.IsAlwaysNull() {
        return ForConstant(32, 1)
    } else if (x.IsAlwaysNull() && y.IsNonNull()) || (x.IsNonNull() && y.IsAlwaysNull()) {
        return ForConstant(32, 0)
    } else {
        return Boolean()
    }
}

func foldAdd(x IntegerStamp, y IntegerStamp) Stamp {
    lo, ok1 := addExact(x.bits, x.lower, y.lower)
    hi, ok2 := addExact(x.bits, x.upper, y.upper)

    /* any overflow on the bounds covers the whole range */
    if ok1 && ok2 {
        return ForRange(x.bits, lo, hi)
    } else {
        return UnrestrictedInt(x.bits)
    }
}

func foldSub(x IntegerStamp, y IntegerStamp) Stamp {
    lo, ok1 := subExact(x.bits, x.lower, y.upper)
    hi, ok2 := subExact(x.bits, x.upper, y.lower)

    /* any overflow on the bounds covers the whole range */
    if ok1 && ok2 {
        return ForRange(x.bits, lo, hi)
    } else {
        return UnrestrictedInt(x.bits)
    }
}

func foldMul(x IntegerStamp, y IntegerStamp) Stamp {
    var ok bool
    var vv [4]int64

    /* the extremes are always at the corners */
    for i, p := range [4][2]int64 {
        { x.lower, y.lower },
        { x.lower, y.upper },
        { x.upper, y.lower },
        { x.upper, y.upper },
    } {
        if vv[i], ok = mulExact(x.bits, p[0], p[1]); !ok {
            return UnrestrictedInt(x.bits)
        }
    }

    /* find the bounds */
    return ForRange(x.bits, min64(min64(vv[0], vv[1]), min64(vv[2], vv[3])), max64(max64(vv[0], vv[1]), max64(vv[2], vv[3])))
}

func foldAnd(x IntegerStamp, y IntegerStamp) Stamp {
    switch {
        case x.lower >= 0 && y.lower >= 0 : return ForRange(x.bits, 0, min64(x.upper, y.upper))
        case x.lower >= 0                 : return ForRange(x.bits, 0, x.upper)
        case y.lower >= 0                 : return ForRange(x.bits, 0, y.upper)
        case x.upper < 0 && y.upper < 0   : return ForRange(x.bits, MinValue(x.bits), min64(x.upper, y.upper))
        default                           : return UnrestrictedInt(x.bits)
    }
}

func foldOr(x IntegerStamp, y IntegerStamp) Stamp {
    switch {
        case x.lower >= 0 && y.lower >= 0 : return ForRange(x.bits, max64(x.lower, y.lower), upperMask(max64(x.upper, y.upper)))
        case x.upper < 0 && y.upper < 0   : return ForRange(x.bits, max64(x.lower, y.lower), -1)
        case x.upper < 0                  : return ForRange(x.bits, x.lower, -1)
        case y.upper < 0                  : return ForRange(x.bits, y.lower, -1)
        default                           : return UnrestrictedInt(x.bits)
    }
}

func foldXor(x IntegerStamp, y IntegerStamp) Stamp {
    if x.lower >= 0 && y.lower >= 0 {
        return ForRange(x.bits, 0, upperMask(max64(x.upper, y.upper)))
    } else {
        return UnrestrictedInt(x.bits)
    }
}

func foldShl(x IntegerStamp, y IntegerStamp) Stamp {
    var ok bool
    var vv [4]int64

    /* shift distance must be known to be in range */
    smin, smax, ok := shiftRange(y, x.bits)
    if !ok {
        return UnrestrictedInt(x.bits)
    }

    /* shifting left is monotone in both operands as long as nothing overflows */
    for i, p := range [4][2]int64 {
        { x.lower, smin },
        { x.lower, smax },
        { x.upper, smin },
        { x.upper, smax },
    } {
        if vv[i], ok = shlExact(x.bits, p[0], uint(p[1])); !ok {
            return UnrestrictedInt(x.bits)
        }
    }

    /* find the bounds */
    return ForRange(x.bits, min64(min64(vv[0], vv[1]), min64(vv[2], vv[3])), max64(max64(vv[0], vv[1]), max64(vv[2], vv[3])))
}

func foldShr(x IntegerStamp, y IntegerStamp) Stamp {
    smin, smax, ok := shiftRange(y, x.bits)
    if !ok {
        return UnrestrictedInt(x.bits)
    }

    /* arithmetic shifts move every value towards 0 or -1 */
    lo := min64(x.lower >> uint(smin), x.lower >> uint(smax))
    hi := max64(x.upper >> uint(smin), x.upper >> uint(smax))
    return ForRange(x.bits, lo, hi)
}

func foldUShr(x IntegerStamp, y IntegerStamp) Stamp {
    if x.lower >= 0 {
        return foldShr(x, y)
    } else {
        return UnrestrictedInt(x.bits)
    }
}

// foldEq folds the equality of disjoint ranges to false. The empty result
// comes from the Pi that narrows one operand by the other, not from here.
func foldEq(x IntegerStamp, y IntegerStamp) Stamp {
    if x.Meet(y).IsEmpty() {
        return ForConstant(32, 0)
    } else {
        return Boolean()
    }
}

func foldLt(x IntegerStamp, y IntegerStamp) Stamp {
    switch {
        case x.upper < y.lower  : return ForConstant(32, 1)
        case x.lower >= y.upper : return ForConstant(32, 0)
        default                 : return Boolean()
    }
}

func foldLtu(x IntegerStamp, y IntegerStamp) Stamp {
    xl, xh, ok1 := unsignedRange(x)
    yl, yh, ok2 := unsignedRange(y)

    /* the ranges must not cross the sign boundary */
    switch {
        case !ok1 || !ok2 : return Boolean()
        case xh < yl      : return ForConstant(32, 1)
        case xl >= yh     : return ForConstant(32, 0)
        default           : return Boolean()
    }
}

func shiftOf(y int64, width uint8) uint {
    return uint(y) & uint(width - 1)
}

func shiftRange(y IntegerStamp, width uint8) (int64, int64, bool) {
    if c, ok := y.Constant(); ok {
        s := int64(shiftOf(c, width))
        return s, s, true
    } else if y.lower >= 0 && y.upper < int64(width) {
        return y.lower, y.upper, true
    } else {
        return 0, 0, false
    }
}

func unsignedRange(x IntegerStamp) (uint64, uint64, bool) {
    if x.lower < 0 && x.upper >= 0 {
        return 0, 0, false
    } else {
        return uint64(x.lower) & UnsignedMask(x.bits), uint64(x.upper) & UnsignedMask(x.bits), true
    }
}

func upperMask(v int64) int64 {
    return int64((uint64(1) << uint(bits.Len64(uint64(v)))) - 1)
}

func inRange(width uint8, v int64) bool {
    return v >= MinValue(width) && v <= MaxValue(width)
}

func addExact(width uint8, x int64, y int64) (int64, bool) {
    r := x + y
    if width < 64 {
        return r, inRange(width, r)
    } else {
        return r, !((x >= 0) == (y >= 0) && (r >= 0) != (x >= 0))
    }
}

func subExact(width uint8, x int64, y int64) (int64, bool) {
    r := x - y
    if width < 64 {
        return r, inRange(width, r)
    } else {
        return r, !((x >= 0) != (y >= 0) && (r >= 0) != (x >= 0))
    }
}

func mulExact(width uint8, x int64, y int64) (int64, bool) {
    r := x * y
    if width < 64 {
        return r, inRange(width, r)
    } else if x == 0 || y == 0 {
        return 0, true
    } else if (x == -1 && y == MinValue(64)) || (y == -1 && x == MinValue(64)) {
        return 0, false
    } else {
        return r, r / y == x
    }
}

func shlExact(width uint8, x int64, s uint) (int64, bool) {
    r := x << s
    return r, r >> s == x && inRange(width, r)
}

func b2i(v bool) int64 {
    if v {
        return 1
    } else {
        return 0
    }
}
