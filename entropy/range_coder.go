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

import (
	"errors"

	"github.com/cabacx/cabacx/bitio"
)

const (
	rangeTop    = uint32(510)
	rangeBottom = uint32(256)
)

// ErrBitstreamOverflow is returned by RangeEncoder when a maxSize budget
// (set with SetMaxSize) has been exceeded. It is the BitstreamOverflow
// error kind: analyzer-recoverable, meaning "abandon this candidate", not
// a data error.
var ErrBitstreamOverflow = errors.New("entropy: bitstream exceeded size budget")

// RangeEncoder is a 9-bit range binary arithmetic encoder with bypass and
// context-coded bins, grounded on the classic H.264/HEVC CABAC engine
// shape (low/range register, buffered-byte carry propagation). The
// low/range/carry state machine is this package's own; the settled output
// bytes it resolves are accumulated with bitio.Writer rather than a raw
// []byte, since carry propagation only decides WHICH byte to emit, not how
// to buffer it.
type RangeEncoder struct {
	low              uint32
	rang             uint32
	bitsLeft         int
	bufferedByte     byte
	numBufferedBytes int
	bw               *bitio.Writer
	maxSize          int // 0 means unbounded
	overflowed       bool
}

// NewRangeEncoder creates an encoder ready for Start.
func NewRangeEncoder() *RangeEncoder {
	this := &RangeEncoder{}
	this.reset()
	return this
}

func (this *RangeEncoder) reset() {
	this.low = 0
	this.rang = rangeTop
	this.bitsLeft = 23
	this.bufferedByte = 0xFF
	this.numBufferedBytes = 0
	this.bw = bitio.NewWriter()
}

// SetMaxSize installs an output-size budget. Once the accumulated output
// would reach or exceed it, subsequent Encode* calls become no-ops and
// Finish reports ErrBitstreamOverflow. A value of 0 removes the budget.
func (this *RangeEncoder) SetMaxSize(maxSize int) {
	this.maxSize = maxSize
}

// Size returns the number of bytes emitted so far (including buffered but
// not yet flushed carry bytes).
func (this *RangeEncoder) Size() int {
	n := int(this.bw.BitsWritten() / 8)

	if this.numBufferedBytes > 0 {
		n += this.numBufferedBytes
	}

	return n
}

func (this *RangeEncoder) budgetExceeded() bool {
	if this.overflowed {
		return true
	}

	if this.maxSize > 0 && this.Size() >= this.maxSize {
		this.overflowed = true
	}

	return this.overflowed
}

// Start begins a block by writing the 32-bit symbol count as 32 bypass
// bits.
func (this *RangeEncoder) Start(numSymbols uint32) {
	this.reset()
	this.EncodeBypassBits(uint64(numSymbols), 32)
}

// EncodeBin encodes a context-coded bin, updating ctx via the standard
// CABAC state-transition tables.
func (this *RangeEncoder) EncodeBin(bit byte, ctx *Context) {
	if this.budgetExceeded() {
		return
	}

	lpsRange := uint32(rangeTabLPS[ctx.State][(this.rang>>6)&3])
	this.rang -= lpsRange

	if bit != ctx.MPS {
		this.low += this.rang
		this.rang = lpsRange
	}

	ctx.update(bit)
	this.renormalize()
}

// EncodeBypass encodes an equal-probability bin without touching any
// context.
func (this *RangeEncoder) EncodeBypass(bit byte) {
	if this.budgetExceeded() {
		return
	}

	this.low <<= 1

	if bit != 0 {
		this.low += this.rang
	}

	this.bitsLeft--

	if this.bitsLeft < 12 {
		this.outputBits()
	}
}

// EncodeBypassBits encodes the low 'n' bits of value MSB-first as bypass
// bins.
func (this *RangeEncoder) EncodeBypassBits(value uint64, n uint) {
	for i := int(n) - 1; i >= 0; i-- {
		this.EncodeBypass(byte((value >> uint(i)) & 1))
	}
}

func (this *RangeEncoder) renormalize() {
	for this.rang < rangeBottom {
		this.rang <<= 1
		this.low <<= 1
		this.bitsLeft--

		if this.bitsLeft < 12 {
			this.outputBits()
		}
	}
}

func (this *RangeEncoder) outputBits() {
	leadByte := this.low >> uint(24-this.bitsLeft)
	this.bitsLeft += 8

	if this.numBufferedBytes > 0 {
		if leadByte == 0xFF {
			this.numBufferedBytes++
		} else {
			carry := byte(leadByte >> 8)
			this.bw.WriteByte(this.bufferedByte + carry)

			for ; this.numBufferedBytes > 1; this.numBufferedBytes-- {
				this.bw.WriteByte(0xFF + carry)
			}

			this.numBufferedBytes = 1
			this.bufferedByte = byte(leadByte)
		}
	} else {
		this.numBufferedBytes = 1
		this.bufferedByte = byte(leadByte)
	}

	this.low &= (1 << uint(32-this.bitsLeft)) - 1
}

// Finish flushes the trailing range and returns the encoded bytes. Returns
// ErrBitstreamOverflow if a maxSize budget was set and exceeded.
func (this *RangeEncoder) Finish() ([]byte, error) {
	// Drain every pending bit still held in 'low' (32-bitsLeft of them).
	// Each call to outputBits reveals one more byte and advances bitsLeft
	// by 8; whole bytes go first, then the final partial byte, shifted up
	// and zero-padded on the right, so carries still resolve into the
	// buffered bytes and the decoder never reads past the end.
	for this.bitsLeft <= 24 {
		this.outputBits()
	}

	if this.bitsLeft < 32 {
		this.low <<= uint(this.bitsLeft - 24)
		this.bitsLeft = 24
		this.outputBits()
	}

	if this.numBufferedBytes > 0 {
		this.bw.WriteByte(this.bufferedByte)

		for i := 1; i < this.numBufferedBytes; i++ {
			this.bw.WriteByte(0xFF)
		}
	}

	out := this.bw.Flush()

	if this.overflowed {
		return nil, ErrBitstreamOverflow
	}

	return out, nil
}

// RangeDecoder mirrors RangeEncoder, reading the standard CABAC decision
// engine's bit-at-a-time offset register out of a bitio.Reader. This is
// symmetric with RangeEncoder's byte-buffered carry propagation: once the
// encoder's carries are resolved (which Finish always does before any byte
// reaches the caller), the finalized bytes are exactly the bit sequence a
// naive bit-by-bit encoder would have produced, so a plain bit-cursor
// decoder reads them back correctly.
type RangeDecoder struct {
	rang      uint32
	offset    uint32
	br        *bitio.Reader
	truncated bool
}

// NewRangeDecoder creates a decoder over buf.
func NewRangeDecoder(buf []byte) *RangeDecoder {
	this := &RangeDecoder{br: bitio.NewReader(buf)}
	return this
}

func (this *RangeDecoder) readBit() uint32 {
	if this.truncated {
		return 0
	}

	bit, err := this.br.ReadBit()

	if err != nil {
		this.truncated = true
		return 0
	}

	return uint32(bit)
}

// Truncated reports whether a read past the end of buf has occurred since
// the decoder was created. Once true it stays true: every bit decoded
// after that point is manufactured, not read, so any caller must treat
// the whole symbol (and everything decoded after it) as untrustworthy.
func (this *RangeDecoder) Truncated() bool {
	return this.truncated
}

// Start reads the 32-bit symbol count written by RangeEncoder.Start and
// preloads the range and offset registers.
func (this *RangeDecoder) Start() uint32 {
	this.rang = rangeTop
	this.offset = 0

	for i := 0; i < 9; i++ {
		this.offset = (this.offset << 1) | this.readBit()
	}

	var count uint32

	for i := 0; i < 32; i++ {
		count = (count << 1) | uint32(this.DecodeBypass())
	}

	return count
}

// DecodeBin decodes a context-coded bin, updating ctx. Once the decoder
// has run past the end of its buffer it stops advancing state and returns
// the context's MPS; callers must check Truncated once the symbol is
// fully decoded rather than trust any bin read after that point.
func (this *RangeDecoder) DecodeBin(ctx *Context) byte {
	if this.truncated {
		return ctx.MPS
	}

	lpsRange := uint32(rangeTabLPS[ctx.State][(this.rang>>6)&3])
	this.rang -= lpsRange
	var bit byte

	if this.offset >= this.rang {
		bit = ctx.MPS ^ 1
		this.offset -= this.rang
		this.rang = lpsRange
	} else {
		bit = ctx.MPS
	}

	ctx.update(bit)
	this.renormalize()
	return bit
}

// DecodeBypass decodes an equal-probability bin. See DecodeBin's comment
// on post-truncation behavior.
func (this *RangeDecoder) DecodeBypass() byte {
	if this.truncated {
		return 0
	}

	this.offset = (this.offset << 1) | this.readBit()

	if this.offset >= this.rang {
		this.offset -= this.rang
		return 1
	}

	return 0
}

func (this *RangeDecoder) renormalize() {
	for this.rang < rangeBottom {
		this.rang <<= 1
		this.offset = (this.offset << 1) | this.readBit()
	}
}

// Finish discards the trailing range. There is nothing to validate: the
// framed length prefix already bounds the read.
func (this *RangeDecoder) Finish() {
}
