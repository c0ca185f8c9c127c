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

// Package entropy implements the CABAC range coder, its adaptive context
// model, and the binarization schemes the coder feeds bins through.
package entropy

// BinKind identifies which binarization scheme a context region belongs to.
// It only affects context table layout: the coding math is identical for
// every kind.
type BinKind int

const (
	BinKindBI BinKind = iota
	BinKindTU
	BinKindEG
	BinKindSEG
	BinKindTEG
	BinKindSTEG
	numBinKinds
)

// Number of bin positions tracked per context region. Binarizations longer
// than this share the last position's context (a standard CABAC practice:
// tail bins of a long TU/EG prefix reuse one context).
const maxBinPos = 8

// Number of (prevSymbol, prevPrevSymbol) offsets: prevSymbol saturates to
// [0,3], prevPrevSymbol saturates to [0,3] => 16 combinations.
const numOffsets = 16

const regionSize = maxBinPos * numOffsets

// TableSize is the total number of context slots in a ContextTable.
const TableSize = int(numBinKinds) * regionSize

// Context is a single adaptive probability state: an MPS bit plus a state
// index into the canonical CABAC transition tables.
type Context struct {
	MPS   byte
	State uint8
}

// ContextTable holds every adaptive context used by a single CABAC block.
// It is reset to the canonical starting distribution at the start of every
// block.
type ContextTable struct {
	slots [TableSize]Context
}

// NewContextTable allocates a table already reset to the initial state.
func NewContextTable() *ContextTable {
	this := &ContextTable{}
	this.Reset()
	return this
}

// Reset restores every context to the canonical starting distribution: MPS
// = 0, State = 0 (maximally uncertain).
func (this *ContextTable) Reset() {
	for i := range this.slots {
		this.slots[i] = Context{MPS: 0, State: 0}
	}
}

func regionBase(kind BinKind) int {
	return int(kind) * regionSize
}

// clampOffset saturates a running (prev, prevPrev) magnitude pair to the
// [0,3] range the context selector uses.
func clampOffset(v int64) uint {
	a := v

	if a < 0 {
		a = -a
	}

	if a > 3 {
		a = 3
	}

	return uint(a)
}

// Select returns the context for a given binarization kind, bin position
// and (prev, prevPrev) magnitude pair, per the order-2 offset formula:
// offset = (prev<<2)|prevPrev.
func (this *ContextTable) Select(kind BinKind, binPos int, order int, prev, prevPrev int64) *Context {
	if binPos >= maxBinPos {
		binPos = maxBinPos - 1
	}

	var offset uint

	switch order {
	case 0:
		offset = 0
	case 1:
		offset = clampOffset(prev) << 2
	default:
		offset = (clampOffset(prev) << 2) | clampOffset(prevPrev)
	}

	idx := regionBase(kind) + binPos*numOffsets + int(offset)
	return &this.slots[idx]
}

// Canonical CABAC state-transition tables (H.264/HEVC-style), indexed by the
// current state (0..63).
var nextStateMPS = [64]uint8{
	1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16,
	17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31, 32,
	33, 34, 35, 36, 37, 38, 39, 40, 41, 42, 43, 44, 45, 46, 47, 48,
	49, 50, 51, 52, 53, 54, 55, 56, 57, 58, 59, 60, 61, 62, 62, 63,
}

var nextStateLPS = [64]uint8{
	0, 0, 1, 2, 2, 4, 4, 5, 6, 7, 8, 9, 9, 11, 11, 12,
	13, 13, 15, 15, 16, 16, 18, 18, 19, 19, 21, 21, 22, 22, 23, 24,
	24, 25, 26, 26, 27, 27, 28, 29, 29, 30, 30, 30, 31, 32, 32, 33,
	33, 33, 34, 34, 35, 35, 35, 36, 36, 36, 37, 37, 37, 38, 38, 63,
}

// rangeTabLPS[state][(range>>6)&3] gives the LPS sub-range for a 9-bit
// coding range.
var rangeTabLPS = [64][4]uint16{
	{128, 176, 208, 240}, {128, 167, 197, 227}, {128, 158, 187, 216}, {123, 150, 178, 205},
	{116, 142, 169, 195}, {111, 135, 160, 185}, {105, 128, 152, 175}, {100, 122, 144, 166},
	{95, 116, 137, 158}, {90, 110, 130, 150}, {85, 104, 123, 142}, {81, 99, 117, 135},
	{77, 94, 111, 128}, {73, 89, 105, 122}, {69, 85, 100, 116}, {66, 80, 95, 110},
	{62, 76, 90, 104}, {59, 72, 86, 99}, {56, 69, 81, 94}, {53, 65, 77, 89},
	{51, 62, 73, 85}, {48, 59, 69, 80}, {46, 56, 66, 76}, {43, 53, 63, 72},
	{41, 50, 59, 69}, {39, 48, 56, 65}, {37, 45, 54, 62}, {35, 43, 51, 59},
	{33, 41, 48, 56}, {32, 39, 46, 53}, {30, 37, 43, 50}, {29, 35, 41, 48},
	{27, 33, 39, 45}, {26, 31, 37, 43}, {24, 30, 35, 41}, {23, 28, 33, 39},
	{22, 27, 32, 37}, {21, 26, 30, 35}, {20, 24, 29, 33}, {19, 23, 27, 31},
	{18, 22, 26, 30}, {17, 21, 25, 28}, {16, 20, 23, 27}, {15, 19, 22, 25},
	{14, 18, 21, 24}, {14, 17, 20, 23}, {13, 16, 19, 22}, {12, 15, 18, 21},
	{12, 14, 17, 20}, {11, 14, 16, 19}, {11, 13, 15, 18}, {10, 12, 15, 17},
	{10, 12, 14, 16}, {9, 11, 13, 15}, {9, 11, 12, 14}, {8, 10, 12, 14},
	{8, 9, 11, 13}, {7, 9, 11, 12}, {7, 9, 10, 12}, {7, 8, 10, 11},
	{6, 8, 9, 11}, {6, 7, 9, 10}, {6, 7, 8, 9}, {2, 2, 2, 2},
}

// update applies the standard CABAC state transition for the observed bit.
func (this *Context) update(bit byte) {
	if bit == this.MPS {
		this.State = nextStateMPS[this.State]
		return
	}

	if this.State == 0 {
		this.MPS ^= 1
	}

	this.State = nextStateLPS[this.State]
}
