/*
Copyright 2011-2017 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package entropy

import "errors"

// BinarizationId identifies one of the six bijective integer<->bin-string
// mappings this package implements.
type BinarizationId int

const (
	BI BinarizationId = iota
	TU
	EG
	SEG
	TEG
	STEG
)

// String returns the canonical lowercase-free name used in logs and error
// messages (JSON uses the same spelling, see package config).
func (id BinarizationId) String() string {
	switch id {
	case BI:
		return "BI"
	case TU:
		return "TU"
	case EG:
		return "EG"
	case SEG:
		return "SEG"
	case TEG:
		return "TEG"
	case STEG:
		return "STEG"
	default:
		return "UNKNOWN"
	}
}

// Signed reports whether this binarization carries an explicit sign bit.
func (id BinarizationId) Signed() bool {
	return id == SEG || id == STEG
}

// ErrBinarizationOutOfRange is the BinarizationOutOfRange error kind: a
// symbol exceeds what the chosen (id, param) can represent.
var ErrBinarizationOutOfRange = errors.New("entropy: symbol out of range for binarization")

// bitEmitter receives one bin (0/1) at the given position within the
// current symbol's bin string. binPos feeds the context selector: tail
// bins beyond ContextTable's tracked positions share a context, which
// Select handles by clamping.
type bitEmitter func(bit byte, binPos int)

// bitReader is the decode-side counterpart of bitEmitter.
type bitReader func(binPos int) byte

func log2Floor(v uint64) uint {
	n := uint(0)

	for v > 1 {
		v >>= 1
		n++
	}

	return n
}

// EncodeBI writes v as a k-bit big-endian field, k in [1,32].
func EncodeBI(emit bitEmitter, v uint64, k uint) error {
	if k < 1 || k > 32 {
		return errors.New("entropy: BI parameter out of [1,32]")
	}

	if v>>k != 0 {
		return ErrBinarizationOutOfRange
	}

	for i := int(k) - 1; i >= 0; i-- {
		emit(byte((v>>uint(i))&1), int(k)-1-i)
	}

	return nil
}

// DecodeBI reads a k-bit big-endian field.
func DecodeBI(read bitReader, k uint) uint64 {
	var v uint64

	for i := uint(0); i < k; i++ {
		v = (v << 1) | uint64(read(int(i)))
	}

	return v
}

// EncodeTU writes min(v,cMax) ones followed by, if v<cMax, a terminating
// zero.
func EncodeTU(emit bitEmitter, v uint64, cMax uint) error {
	if cMax < 1 || cMax > 32 {
		return errors.New("entropy: TU parameter out of [1,32]")
	}

	if v > uint64(cMax) {
		return ErrBinarizationOutOfRange
	}

	n := v

	if n > uint64(cMax) {
		n = uint64(cMax)
	}

	pos := 0

	for i := uint64(0); i < n; i++ {
		emit(1, pos)
		pos++
	}

	if v < uint64(cMax) {
		emit(0, pos)
	}

	return nil
}

// DecodeTU reads ones until a zero or cMax ones have been read.
func DecodeTU(read bitReader, cMax uint) uint64 {
	var n uint64
	pos := 0

	for n < uint64(cMax) {
		if read(pos) == 0 {
			return n
		}

		pos++
		n++
	}

	return n
}

// EncodeEG writes (v+1) Exp-Golomb coded: floor(log2(v+1)) zeros, then the
// (floor(log2(v+1))+1)-bit binary value of v+1.
func EncodeEG(emit bitEmitter, v uint64) error {
	codeNum := v + 1
	prefixLen := log2Floor(codeNum)
	pos := 0

	for i := uint(0); i < prefixLen; i++ {
		emit(0, pos)
		pos++
	}

	for i := int(prefixLen); i >= 0; i-- {
		emit(byte((codeNum>>uint(i))&1), pos)
		pos++
	}

	return nil
}

// DecodeEG reads zeros until a one, then that many more bits, and returns
// (value - 1) where value is the reconstructed codeNum.
func DecodeEG(read bitReader) uint64 {
	pos := 0
	prefixLen := uint(0)

	for read(pos) == 0 {
		pos++
		prefixLen++
	}

	codeNum := uint64(1)
	pos++

	for i := uint(0); i < prefixLen; i++ {
		codeNum = (codeNum << 1) | uint64(read(pos))
		pos++
	}

	return codeNum - 1
}

// EncodeSEG maps v to |v|*2 (v<=0) or |v|*2-1 (v>0) and EG-encodes it.
func EncodeSEG(emit bitEmitter, v int64) error {
	var mapped uint64

	if v <= 0 {
		mapped = uint64(-v) * 2
	} else {
		mapped = uint64(v)*2 - 1
	}

	return EncodeEG(emit, mapped)
}

// DecodeSEG inverts EncodeSEG.
func DecodeSEG(read bitReader) int64 {
	mapped := DecodeEG(read)

	if mapped&1 == 0 {
		return -int64(mapped / 2)
	}

	return int64((mapped + 1) / 2)
}

// EncodeTEG writes TU(k) for v<k, else a saturated TU(k) run followed by
// EG(v-k).
func EncodeTEG(emit bitEmitter, v uint64, k uint) error {
	if k < 1 || k > 32 {
		return errors.New("entropy: TEG parameter out of [1,32]")
	}

	if v < uint64(k) {
		return EncodeTU(emit, v, k)
	}

	tuEmit := func(bit byte, pos int) { emit(bit, pos) }

	if err := EncodeTU(tuEmit, uint64(k), k); err != nil {
		return err
	}

	egEmit := func(bit byte, pos int) { emit(bit, int(k)+pos) }
	return EncodeEG(egEmit, v-uint64(k))
}

// DecodeTEG inverts EncodeTEG.
func DecodeTEG(read bitReader, k uint) uint64 {
	v, _ := decodeTEGLen(read, k)
	return v
}

// decodeTEGLen is DecodeTEG plus the number of bins consumed, needed by
// DecodeSTEG to locate the trailing sign bit.
func decodeTEGLen(read bitReader, k uint) (uint64, int) {
	tuRead := func(pos int) byte { return read(pos) }
	n := DecodeTU(tuRead, k)

	if n < uint64(k) {
		return n, int(n) + 1
	}

	egRead := func(pos int) byte { return read(int(k) + pos) }
	eg := DecodeEG(egRead)
	egLen := egBinLen(eg)
	return uint64(k) + eg, int(k) + egLen
}

// egBinLen returns how many bins EncodeEG(v) writes.
func egBinLen(v uint64) int {
	codeNum := v + 1
	prefixLen := log2Floor(codeNum)
	return int(prefixLen)*2 + 1
}

// EncodeSTEG writes TEG(k, |v|) then, if v != 0, a sign bit (1 negative).
func EncodeSTEG(emit bitEmitter, v int64, k uint) error {
	abs := v

	if abs < 0 {
		abs = -abs
	}

	if err := EncodeTEG(emit, uint64(abs), k); err != nil {
		return err
	}

	if v != 0 {
		sign := byte(0)

		if v < 0 {
			sign = 1
		}

		emit(sign, tegLen(uint64(abs), k))
	}

	return nil
}

// tegLen returns how many bins EncodeTEG(v, k) writes, so the sign bit
// that follows in EncodeSTEG lands at the right position.
func tegLen(v uint64, k uint) int {
	if v < uint64(k) {
		return int(v) + 1
	}

	return int(k) + egBinLen(v-uint64(k))
}

// DecodeSTEG inverts EncodeSTEG: decodes the TEG(k) magnitude, then, if
// nonzero, a trailing sign bit at the position immediately following it.
func DecodeSTEG(read bitReader, k uint) int64 {
	magnitude, n := decodeTEGLen(read, k)

	if magnitude == 0 {
		return 0
	}

	if read(n) == 1 {
		return -int64(magnitude)
	}

	return int64(magnitude)
}

// Kind maps a BinarizationId to the context-table region it uses.
func (id BinarizationId) Kind() BinKind {
	switch id {
	case BI:
		return BinKindBI
	case TU:
		return BinKindTU
	case EG:
		return BinKindEG
	case SEG:
		return BinKindSEG
	case TEG:
		return BinKindTEG
	default:
		return BinKindSTEG
	}
}

// sbCheck reports whether v is representable by (id, param): BI is bounded
// by its k-bit width and TU by cMax; EG and TEG accept any non-negative v
// and SEG and STEG any v, with no limit on magnitude.
func sbCheck(id BinarizationId, v int64, param uint) bool {
	switch id {
	case BI:
		if param < 1 || param > 32 {
			return false
		}

		return v >= 0 && (uint64(v)>>param) == 0
	case TU:
		return v >= 0 && param >= 1 && param <= 32 && uint64(v) <= uint64(param)
	case EG:
		return v >= 0
	case SEG:
		return true
	case TEG:
		return v >= 0 && param >= 1 && param <= 32
	case STEG:
		return param >= 1 && param <= 32
	default:
		return false
	}
}

// EncodeValue dispatches to the binarization named by id, calling emit
// once per produced bin.
func EncodeValue(id BinarizationId, emit bitEmitter, v int64, param uint) error {
	if !sbCheck(id, v, param) {
		return ErrBinarizationOutOfRange
	}

	switch id {
	case BI:
		return EncodeBI(emit, uint64(v), param)
	case TU:
		return EncodeTU(emit, uint64(v), param)
	case EG:
		return EncodeEG(emit, uint64(v))
	case SEG:
		return EncodeSEG(emit, v)
	case TEG:
		return EncodeTEG(emit, uint64(v), param)
	case STEG:
		return EncodeSTEG(emit, v, param)
	default:
		return errors.New("entropy: unknown binarization id")
	}
}

// DecodeValue is EncodeValue's inverse.
func DecodeValue(id BinarizationId, read bitReader, param uint) (int64, error) {
	switch id {
	case BI:
		return int64(DecodeBI(read, param)), nil
	case TU:
		return int64(DecodeTU(read, param)), nil
	case EG:
		return int64(DecodeEG(read)), nil
	case SEG:
		return DecodeSEG(read), nil
	case TEG:
		return int64(DecodeTEG(read, param)), nil
	case STEG:
		return DecodeSTEG(read, param), nil
	default:
		return 0, errors.New("entropy: unknown binarization id")
	}
}
