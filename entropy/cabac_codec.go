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

import "github.com/cabacx/cabacx/cerrors"

// ContextMode selects how a CabacCodec picks contexts for the bins a
// binarization produces: bypass skips the context model entirely, the
// order-N modes condition on the previous N decoded symbols.
type ContextMode int

const (
	ContextBypass ContextMode = iota
	ContextOrder0
	ContextOrder1
	ContextOrder2
)

// String names a ContextMode for log output. Package config uses its own
// JSON spelling ("bypass", "adaptive_coding_order_N").
func (m ContextMode) String() string {
	switch m {
	case ContextBypass:
		return "bypass"
	case ContextOrder0:
		return "order0"
	case ContextOrder1:
		return "order1"
	case ContextOrder2:
		return "order2"
	default:
		return "unknown"
	}
}

func (m ContextMode) order() int {
	switch m {
	case ContextOrder1:
		return 1
	case ContextOrder2:
		return 2
	default:
		return 0
	}
}

// CabacCodec drives one sub-stream: a chosen binarization over a chosen
// context table region, with adaptive history for order-1/order-2
// selection. One CabacCodec is created per sub-stream per direction
// (encode or decode); the same *ContextTable may be shared or split per
// sub-stream, mirroring how the original factory dispatched one codec
// instance per stream (see EntropyCodecFactory.go in the source tree this
// package descends from).
type CabacCodec struct {
	table          *ContextTable
	binID          BinarizationId
	param          uint
	mode           ContextMode
	prev, prevPrev int64
}

// NewCabacCodec builds a codec for one sub-stream. table may be shared
// across sub-streams that intentionally pool statistics, or private to
// isolate them; the caller decides.
func NewCabacCodec(table *ContextTable, binID BinarizationId, param uint, mode ContextMode) *CabacCodec {
	return &CabacCodec{table: table, binID: binID, param: param, mode: mode}
}

// EncodeSymbol binarizes v and writes its bins to rc, then advances the
// order-1/order-2 history. Returns ErrBinarizationOutOfRange if v cannot
// be represented, or ErrBitstreamOverflow if rc's budget was exceeded
// mid-symbol.
func (this *CabacCodec) EncodeSymbol(rc *RangeEncoder, v int64) error {
	kind := this.binID.Kind()
	order := this.mode.order()

	emit := func(bit byte, pos int) {
		if this.mode == ContextBypass {
			rc.EncodeBypass(bit)
			return
		}

		ctx := this.table.Select(kind, pos, order, this.prev, this.prevPrev)
		rc.EncodeBin(bit, ctx)
	}

	if err := EncodeValue(this.binID, emit, v, this.param); err != nil {
		return err
	}

	if rc.budgetExceeded() {
		return ErrBitstreamOverflow
	}

	this.prevPrev = this.prev
	this.prev = v
	return nil
}

// DecodeSymbol is EncodeSymbol's inverse.
func (this *CabacCodec) DecodeSymbol(rc *RangeDecoder) (int64, error) {
	kind := this.binID.Kind()
	order := this.mode.order()

	read := func(pos int) byte {
		if this.mode == ContextBypass {
			return rc.DecodeBypass()
		}

		ctx := this.table.Select(kind, pos, order, this.prev, this.prevPrev)
		return rc.DecodeBin(ctx)
	}

	v, err := DecodeValue(this.binID, read, this.param)

	if err != nil {
		return 0, err
	}

	if rc.Truncated() {
		return 0, cerrors.New(cerrors.Truncated, "decoder read past end of framed bytestream")
	}

	this.prevPrev = this.prev
	this.prev = v
	return v, nil
}

// Reset clears the order-1/order-2 history without touching the
// underlying context table. Callers reuse a CabacCodec across blocks
// that share adaptive statistics but must not leak prior-symbol history
// across an unrelated stream boundary.
func (this *CabacCodec) Reset() {
	this.prev = 0
	this.prevPrev = 0
}
