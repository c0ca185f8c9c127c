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

package transform

import (
	"sort"

	"github.com/cabacx/cabacx/cerrors"
)

// LutCap bounds both the alphabet cardinality a LUT remap will accept and
// the total size of the order-1/2 context table, mirroring the sorted
// symbol table SRT.go builds for byte alphabets but generalized to an
// unbounded integer alphabet with an explicit cap instead of a fixed
// 256-entry array.
const LutCap = 1 << 20

// Lut is the result of one BuildLut call: the rank stream that replaces
// the original symbol stream, plus the table(s) needed to invert it.
type Lut struct {
	Order  int
	Ranks  []uint64
	Table0 []uint64 // rank -> symbol, frequency order
	Table1 []uint64 // flattened [bucket][localRank] -> rank0, order 1/2 only
}

func bucketsForOrder(order int) int {
	switch order {
	case 1:
		return 4
	case 2:
		return 16
	default:
		return 1
	}
}

func clampRank(r int64) int64 {
	if r > 3 {
		return 3
	}

	if r < 0 {
		return 0
	}

	return r
}

func contextBucket(order int, prev, prevPrev int64) int {
	switch order {
	case 1:
		return int(clampRank(prev))
	case 2:
		return int(clampRank(prev))*4 + int(clampRank(prevPrev))
	default:
		return 0
	}
}

// BuildLut computes the order-0/1/2 frequency-rank remap of symbols. It
// returns a LutOverflow Fault if the alphabet, or the order-k context
// table built from it, would exceed LutCap.
func BuildLut(symbols []uint64, order int) (*Lut, error) {
	freq := make(map[uint64]int, 256)

	for _, s := range symbols {
		freq[s]++
	}

	if len(freq) > LutCap {
		return nil, cerrors.Newf(cerrors.LutOverflow, "alphabet cardinality %d exceeds cap %d", len(freq), LutCap)
	}

	distinct := make([]uint64, 0, len(freq))

	for s := range freq {
		distinct = append(distinct, s)
	}

	sort.Slice(distinct, func(i, j int) bool { return distinct[i] < distinct[j] })
	sort.SliceStable(distinct, func(i, j int) bool { return freq[distinct[i]] > freq[distinct[j]] })

	table0 := distinct
	rank0Of := make(map[uint64]int, len(table0))

	for r, s := range table0 {
		rank0Of[s] = r
	}

	cardinality := len(table0)
	rank0Stream := make([]int, len(symbols))

	for i, s := range symbols {
		rank0Stream[i] = rank0Of[s]
	}

	if order == 0 {
		ranks := make([]uint64, len(symbols))

		for i, r := range rank0Stream {
			ranks[i] = uint64(r)
		}

		return &Lut{Order: 0, Ranks: ranks, Table0: table0}, nil
	}

	numBuckets := bucketsForOrder(order)
	tableSize := numBuckets * cardinality

	if tableSize > LutCap {
		return nil, cerrors.Newf(cerrors.LutOverflow, "order-%d context table size %d exceeds cap %d", order, tableSize, LutCap)
	}

	freqPerBucket := make([][]int, numBuckets)

	for b := range freqPerBucket {
		freqPerBucket[b] = make([]int, cardinality)
	}

	prevRank, prevPrevRank := int64(0), int64(0)

	for _, r0 := range rank0Stream {
		bucket := contextBucket(order, prevRank, prevPrevRank)
		freqPerBucket[bucket][r0]++
		prevPrevRank = prevRank
		prevRank = int64(r0)
	}

	// localRankOf[bucket][rank0] = local rank within that bucket.
	localRankOf := make([][]int, numBuckets)
	table1 := make([]uint64, tableSize)

	for b := 0; b < numBuckets; b++ {
		order := make([]int, cardinality)

		for r0 := range order {
			order[r0] = r0
		}

		bf := freqPerBucket[b]
		sort.SliceStable(order, func(i, j int) bool { return bf[order[i]] > bf[order[j]] })

		localRankOf[b] = make([]int, cardinality)

		for localRank, r0 := range order {
			localRankOf[b][r0] = localRank
			table1[b*cardinality+localRank] = uint64(r0)
		}
	}

	ranks := make([]uint64, len(symbols))
	prevRank, prevPrevRank = 0, 0

	for i, r0 := range rank0Stream {
		bucket := contextBucket(order, prevRank, prevPrevRank)
		ranks[i] = uint64(localRankOf[bucket][r0])
		prevPrevRank = prevRank
		prevRank = int64(r0)
	}

	return &Lut{Order: order, Ranks: ranks, Table0: table0, Table1: table1}, nil
}

// InverseLut reconstructs the original symbol stream from a Lut's ranks
// and tables.
func InverseLut(l *Lut) ([]uint64, error) {
	cardinality := len(l.Table0)
	symbols := make([]uint64, len(l.Ranks))

	if l.Order == 0 {
		for i, r := range l.Ranks {
			if int(r) >= cardinality {
				return nil, cerrors.Newf(cerrors.ConfigInvalid, "rank %d out of bounds for table of size %d", r, cardinality)
			}

			symbols[i] = l.Table0[r]
		}

		return symbols, nil
	}

	numBuckets := bucketsForOrder(l.Order)

	if len(l.Table1) != numBuckets*cardinality {
		return nil, cerrors.Newf(cerrors.ConfigInvalid, "table1 size %d does not match order-%d layout for cardinality %d",
			len(l.Table1), l.Order, cardinality)
	}

	prevRank, prevPrevRank := int64(0), int64(0)

	for i, lr := range l.Ranks {
		bucket := contextBucket(l.Order, prevRank, prevPrevRank)

		if int(lr) >= cardinality {
			return nil, cerrors.Newf(cerrors.ConfigInvalid, "local rank %d out of bounds for cardinality %d", lr, cardinality)
		}

		r0 := l.Table1[bucket*cardinality+int(lr)]
		symbols[i] = l.Table0[r0]
		prevPrevRank = prevRank
		prevRank = int64(r0)
	}

	return symbols, nil
}
