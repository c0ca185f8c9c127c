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

// Package pipeline applies one Configuration's sequence transform, LUT
// remap, differential promotion and CabacCodec encoding to a symbol
// stream, and frames the result. It is grounded on the block-processing
// loop io/CompressedStream.go used to orchestrate transform+entropy
// stages, stripped of that file's concurrency (one goroutine per block),
// checksum and magic-number framing: this pipeline is single-threaded
// and the Configuration carries its own authority, so the bytestream
// needs neither.
package pipeline

import (
	"encoding/binary"

	"github.com/cabacx/cabacx/cerrors"
	"github.com/cabacx/cabacx/config"
	"github.com/cabacx/cabacx/entropy"
	"github.com/cabacx/cabacx/transform"
)

// BytesToSymbols groups a raw byte buffer into little-endian wordSize
// integers. Returns InputMisaligned if the length does not divide
// evenly.
func BytesToSymbols(buf []byte, wordSize uint) ([]uint64, error) {
	if wordSize != 1 && wordSize != 2 && wordSize != 4 && wordSize != 8 {
		return nil, cerrors.Newf(cerrors.ConfigInvalid, "wordSize %d not in {1,2,4,8}", wordSize)
	}

	if len(buf)%int(wordSize) != 0 {
		return nil, cerrors.Newf(cerrors.InputMisaligned, "input length %d not divisible by wordSize %d", len(buf), wordSize)
	}

	n := len(buf) / int(wordSize)
	symbols := make([]uint64, n)

	for i := 0; i < n; i++ {
		var v uint64

		for b := uint(0); b < wordSize; b++ {
			v |= uint64(buf[uint(i)*wordSize+b]) << (8 * b)
		}

		symbols[i] = v
	}

	return symbols, nil
}

// SymbolsToBytes is BytesToSymbols' inverse.
func SymbolsToBytes(symbols []uint64, wordSize uint) []byte {
	buf := make([]byte, len(symbols)*int(wordSize))

	for i, v := range symbols {
		for b := uint(0); b < wordSize; b++ {
			buf[uint(i)*wordSize+b] = byte(v >> (8 * b))
		}
	}

	return buf
}

func bitsFor(max uint64) uint {
	if max == 0 {
		return 1
	}

	bits := uint(0)

	for v := max; v > 0; v >>= 1 {
		bits++
	}

	return bits
}

// bitsForCount returns the bit width needed to index n distinct entries
// (a table1 slot count of 0 or 1 both need 1 bit; BI's parameter must be
// >= 1 regardless).
func bitsForCount(n int) uint {
	if n <= 1 {
		return 1
	}

	return bitsFor(uint64(n - 1))
}

func maxOf(values []uint64) uint64 {
	var m uint64

	for _, v := range values {
		if v > m {
			m = v
		}
	}

	return m
}

// DeriveLutBits computes the lutBits a Configuration's sub-stream entry
// needs for a given table0, per the bits = ⌈log2(maxVal+1)⌉
// derivation. Exported so config construction (explicit or analyzer
// discovered) can populate SubStreamConfig.LutBits before Encode reads
// it as authoritative.
func DeriveLutBits(table0 []uint64) uint {
	return bitsFor(maxOf(table0))
}

// DeriveLutOrder1Bits computes the bit width of a table1 entry index for
// a table0 of the given size, per bits = ⌈log2(|table0|)⌉.
func DeriveLutOrder1Bits(table0Size int) uint {
	return bitsForCount(table0Size)
}

// FrameLength returns the on-wire size of a blob framing a payload of
// payloadLen bytes: the 4-byte little-endian length prefix plus the
// payload itself. Exported so the analyzer can price a candidate's LUT
// tables without duplicating the framing constant.
func FrameLength(payloadLen int) int {
	return 4 + payloadLen
}

func appendBlob(out []byte, payload []byte) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	out = append(out, lenBuf[:]...)
	return append(out, payload...)
}

func readBlob(framed []byte, pos int) (payload []byte, next int, err error) {
	if pos+4 > len(framed) {
		return nil, pos, cerrors.New(cerrors.Truncated, "not enough bytes for a blob length prefix")
	}

	length := int(binary.LittleEndian.Uint32(framed[pos : pos+4]))
	pos += 4

	if pos+length > len(framed) {
		return nil, pos, cerrors.New(cerrors.Truncated, "blob payload runs past end of bytestream")
	}

	return framed[pos : pos+length], pos + length, nil
}

// EncodeUnsignedTable is encodeUnsignedTable with no size budget,
// exported so the analyzer can price a LUT table's exact encoded size
// the same way Encode itself will when it later replays the discovered
// Configuration.
func EncodeUnsignedTable(values []uint64, bits uint) ([]byte, error) {
	return encodeUnsignedTable(values, bits, 0)
}

// encodeUnsignedTable CABAC-encodes a table of unsigned values as
// bypass-coded BI(bits) bins and returns the unframed payload; the caller
// adds the length prefix.
func encodeUnsignedTable(values []uint64, bits uint, maxSize int) ([]byte, error) {
	rc := entropy.NewRangeEncoder()

	if maxSize > 0 {
		rc.SetMaxSize(maxSize)
	}

	rc.Start(uint32(len(values)))
	table := entropy.NewContextTable()
	codec := entropy.NewCabacCodec(table, entropy.BI, bits, entropy.ContextBypass)

	for _, v := range values {
		if err := codec.EncodeSymbol(rc, int64(v)); err != nil {
			return nil, err
		}
	}

	return rc.Finish()
}

// maxBinsPerBit bounds how many bins the decoder can consume per payload
// bit: a context-coded bin shrinks the 9-bit range by at least 6 (the
// smallest rangeTabLPS entry a context can reach), so at most 43 bins pass
// between two renormalization reads; a bypass bin reads one bit itself.
const maxBinsPerBit = 64

// checkDecodedCount guards against a corrupted or truncated payload before
// its declared symbol count n is used to size an allocation: n must have
// been read without running past the end of payload, and every symbol
// costs at least one bin, so a legitimate n can never exceed
// maxBinsPerBit symbols per payload bit.
func checkDecodedCount(rd *entropy.RangeDecoder, n uint32, payloadLen int) error {
	if rd.Truncated() {
		return cerrors.New(cerrors.Truncated, "decoder read past end of framed bytestream")
	}

	if uint64(n) > uint64(payloadLen)*8*maxBinsPerBit {
		return cerrors.New(cerrors.Truncated, "decoder read past end of framed bytestream")
	}

	return nil
}

func decodeUnsignedTable(payload []byte, bits uint) ([]uint64, error) {
	rd := entropy.NewRangeDecoder(payload)
	n := rd.Start()

	if err := checkDecodedCount(rd, n, len(payload)); err != nil {
		return nil, err
	}

	table := entropy.NewContextTable()
	codec := entropy.NewCabacCodec(table, entropy.BI, bits, entropy.ContextBypass)
	out := make([]uint64, n)

	for i := range out {
		v, err := codec.DecodeSymbol(rd)

		if err != nil {
			return nil, err
		}

		out[i] = uint64(v)
	}

	return out, nil
}

// Encode applies cfg's sequence transform, per sub-stream LUT/diff, and
// CabacCodec encoding to symbols, returning the framed bytestream.
func Encode(symbols []uint64, cfg *config.Configuration) ([]byte, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seq := transform.New(cfg.SequenceTransformationId)
	subStreams, err := seq.Forward(symbols, cfg.SequenceTransformationParameter)

	if err != nil {
		return nil, err
	}

	var out []byte

	for i, sub := range subStreams {
		sc := cfg.SubStreamConfigs[i]
		values := sub

		if sc.LutTransformationEnabled {
			lut, err := transform.BuildLut(values, sc.LutOrder)

			if err != nil {
				return nil, err
			}

			bits0 := sc.LutBits

			if bits0 == 0 {
				bits0 = 1
			}

			table0Blob, err := encodeUnsignedTable(lut.Table0, bits0, 0)

			if err != nil {
				return nil, err
			}

			out = appendBlob(out, table0Blob)

			if sc.LutOrder > 0 {
				bits1 := bitsForCount(len(lut.Table0))
				table1Blob, err := encodeUnsignedTable(lut.Table1, bits1, 0)

				if err != nil {
					return nil, err
				}

				out = appendBlob(out, table1Blob)
			}

			values = lut.Ranks
		}

		mainBlob, err := encodeMainStream(values, sc)

		if err != nil {
			return nil, err
		}

		out = appendBlob(out, mainBlob)
	}

	return out, nil
}

func encodeMainStream(values []uint64, sc config.SubStreamConfig) ([]byte, error) {
	rc := entropy.NewRangeEncoder()
	table := entropy.NewContextTable()
	param := uint(0)

	if len(sc.BinarizationParameters) > 0 {
		param = uint(sc.BinarizationParameters[0])
	}

	codec := entropy.NewCabacCodec(table, sc.BinarizationId, param, sc.ContextSelectionId)

	if sc.DiffCodingEnabled {
		diffs := transform.Diff(values)
		rc.Start(uint32(len(diffs)))

		for _, d := range diffs {
			if err := codec.EncodeSymbol(rc, d); err != nil {
				return nil, err
			}
		}
	} else {
		rc.Start(uint32(len(values)))

		for _, v := range values {
			if err := codec.EncodeSymbol(rc, int64(v)); err != nil {
				return nil, err
			}
		}
	}

	return rc.Finish()
}

// Decode is Encode's inverse.
func Decode(framed []byte, cfg *config.Configuration) ([]uint64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	numSub := cfg.SequenceTransformationId.NumSubStreams()
	subStreams := make([][]uint64, numSub)
	pos := 0

	for i := 0; i < numSub; i++ {
		sc := cfg.SubStreamConfigs[i]
		var table0 []uint64

		if sc.LutTransformationEnabled {
			payload, next, err := readBlob(framed, pos)

			if err != nil {
				return nil, err
			}

			pos = next
			bits0 := sc.LutBits

			if bits0 == 0 {
				bits0 = 1
			}

			table0, err = decodeUnsignedTable(payload, bits0)

			if err != nil {
				return nil, err
			}
		}

		var table1 []uint64

		if sc.LutTransformationEnabled && sc.LutOrder > 0 {
			payload, next, err := readBlob(framed, pos)

			if err != nil {
				return nil, err
			}

			pos = next
			bits1 := bitsForCount(len(table0))

			table1, err = decodeUnsignedTable(payload, bits1)

			if err != nil {
				return nil, err
			}
		}

		payload, next, err := readBlob(framed, pos)

		if err != nil {
			return nil, err
		}

		pos = next
		values, err := decodeMainStream(payload, sc)

		if err != nil {
			return nil, err
		}

		if sc.LutTransformationEnabled {
			l := &transform.Lut{Order: sc.LutOrder, Ranks: values, Table0: table0, Table1: table1}
			values, err = transform.InverseLut(l)

			if err != nil {
				return nil, err
			}
		}

		subStreams[i] = values
	}

	seq := transform.New(cfg.SequenceTransformationId)
	return seq.Inverse(subStreams, cfg.SequenceTransformationParameter)
}

func decodeMainStream(payload []byte, sc config.SubStreamConfig) ([]uint64, error) {
	rd := entropy.NewRangeDecoder(payload)
	n := rd.Start()

	if err := checkDecodedCount(rd, n, len(payload)); err != nil {
		return nil, err
	}

	table := entropy.NewContextTable()
	param := uint(0)

	if len(sc.BinarizationParameters) > 0 {
		param = uint(sc.BinarizationParameters[0])
	}

	codec := entropy.NewCabacCodec(table, sc.BinarizationId, param, sc.ContextSelectionId)
	raw := make([]int64, n)

	for i := range raw {
		v, err := codec.DecodeSymbol(rd)

		if err != nil {
			return nil, err
		}

		raw[i] = v
	}

	if sc.DiffCodingEnabled {
		return transform.InverseDiff(raw), nil
	}

	out := make([]uint64, len(raw))

	for i, v := range raw {
		out[i] = uint64(v)
	}

	return out, nil
}
