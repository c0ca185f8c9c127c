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

// Package analyzer exhaustively searches the Configuration space for the
// smallest encoding of a given input, in the enumerate-every-candidate-
// and-keep-the-best shape of tests/measure/analyzer.go, dispatching
// binarizations the way EntropyCodecFactory.go dispatches entropy coders:
// by trying each registered one against the data and comparing sizes
// rather than choosing analytically.
package analyzer

import (
	"github.com/cabacx/cabacx/cerrors"
	"github.com/cabacx/cabacx/config"
	"github.com/cabacx/cabacx/entropy"
	"github.com/cabacx/cabacx/logging"
	"github.com/cabacx/cabacx/pipeline"
	"github.com/cabacx/cabacx/transform"
)

// unbounded stands in for "no budget yet": large enough that no real
// bytestream will ever reach it, but finite so it can be handed straight
// to RangeEncoder.SetMaxSize without a special unbounded-vs-bounded branch.
const unbounded = int(1) << 50

// Candidates bounds the search space Analyze explores. DefaultCandidates
// returns a reasonable full sweep; callers narrow it to bias toward speed
// over exhaustiveness.
type Candidates struct {
	WordSizes             []uint
	SequenceTransforms    []transform.SequenceId
	MatchWindowSizes      []uint64
	RleGuards             []uint64
	LutOrders             []int // orders tried when a LUT is attempted; empty disables the LUT lane entirely
	DiffEnabled           []bool
	UnsignedBinarizations []entropy.BinarizationId
	SignedBinarizations   []entropy.BinarizationId
	TegParams             []uint64
	ContextSelections     []entropy.ContextMode
}

// DefaultCandidates sweeps every word size, sequence transform, LUT order
// and context selection mode this repo implements.
func DefaultCandidates() Candidates {
	return Candidates{
		WordSizes:             []uint{1, 2, 4, 8},
		SequenceTransforms:    []transform.SequenceId{transform.NoTransformId, transform.EqualityId, transform.RleId, transform.MatchId},
		MatchWindowSizes:      []uint64{16, 64, 256},
		RleGuards:             []uint64{4, 16, 64, 255},
		LutOrders:             []int{0, 1, 2},
		DiffEnabled:           []bool{false, true},
		UnsignedBinarizations: []entropy.BinarizationId{entropy.BI, entropy.TU, entropy.EG, entropy.TEG},
		SignedBinarizations:   []entropy.BinarizationId{entropy.SEG, entropy.STEG},
		TegParams:             []uint64{1, 2, 3, 4, 6, 8, 12, 16, 24, 32},
		ContextSelections: []entropy.ContextMode{
			entropy.ContextBypass, entropy.ContextOrder0, entropy.ContextOrder1, entropy.ContextOrder2,
		},
	}
}

// Result is the winning Configuration and the total framed byte count it
// produces.
type Result struct {
	Config *config.Configuration
	Size   int
}

// Analyze enumerates wordSize -> sequenceTransform -> sequenceTransform-
// Parameter -> (per sub-stream) LUT order -> diff enabled -> binarizationId
// -> binarizationParameter -> contextSelectionId, and returns the
// Configuration with the smallest total framed size. Two running minima
// prune the search: bestTotalSize across the whole run, and, within one
// sub-stream, the budget passed down from the caller. Any partial encode
// that would reach either is abandoned via RangeEncoder's maxSize budget
// rather than run to completion and discarded.
func Analyze(raw []byte, candidates Candidates, log *logging.Logger) (*Result, error) {
	if log == nil {
		log = logging.Default()
	}

	cache := newSizeCache()
	bestTotalSize := unbounded
	var bestConfig *config.Configuration

	for _, wordSize := range candidates.WordSizes {
		if len(raw)%int(wordSize) != 0 {
			log.Warningf("word size %d does not divide input length %d, skipping", wordSize, len(raw))
			continue
		}

		symbols, err := pipeline.BytesToSymbols(raw, wordSize)

		if err != nil {
			log.Warningf("word size %d: %v, skipping", wordSize, err)
			continue
		}

		stack := newSnapshotStack(symbols)

		for _, seqID := range candidates.SequenceTransforms {
			for _, param := range seqParamCandidates(seqID, candidates) {
				seq := transform.New(seqID)
				subStreams, err := seq.Forward(stack.top()[0], param)

				if err != nil {
					log.Debugf("wordSize=%d transform=%s param=%d: forward failed: %v", wordSize, seqID, param, err)
					continue
				}

				stack.push(snapshot(subStreams))
				cfgs, total, ok := searchSubStreams(stack.top(), candidates, bestTotalSize, cache, log)
				stack.pop()

				if !ok {
					log.Debugf("wordSize=%d transform=%s param=%d: no valid configuration for some sub-stream, branch abandoned", wordSize, seqID, param)
					continue
				}

				if total < bestTotalSize {
					bestTotalSize = total
					bestConfig = &config.Configuration{
						WordSize:                        wordSize,
						SequenceTransformationId:        seqID,
						SequenceTransformationParameter: param,
						SubStreamConfigs:                cfgs,
					}
				}
			}
		}
	}

	if bestConfig == nil {
		return nil, cerrors.New(cerrors.Unknown, "no candidate configuration succeeded for any word size or sequence transform")
	}

	return &Result{Config: bestConfig, Size: bestTotalSize}, nil
}

// seqParamCandidates returns the sequenceTransformationParameter values
// worth trying for seqID. Only match (window size) and rle (guard) carry
// a meaningful parameter; no_transform and equality ignore it.
func seqParamCandidates(seqID transform.SequenceId, candidates Candidates) []uint64 {
	switch seqID {
	case transform.MatchId:
		return candidates.MatchWindowSizes
	case transform.RleId:
		return candidates.RleGuards
	default:
		return []uint64{0}
	}
}

// searchSubStreams finds the best SubStreamConfig for every sub-stream in
// snap, in order, threading the remaining budget from one sub-stream to
// the next. It fails (ok=false) as soon as any sub-stream has no valid
// configuration within its share of the budget.
func searchSubStreams(snap snapshot, candidates Candidates, budget int, cache *sizeCache, log *logging.Logger) ([]config.SubStreamConfig, int, bool) {
	total := 0
	cfgs := make([]config.SubStreamConfig, len(snap))

	for i, sub := range snap {
		remaining := budget - total

		if remaining <= 4 {
			return nil, 0, false
		}

		sc, size, ok := pickBestSubStreamConfig(sub, candidates, remaining, cache, log)

		if !ok {
			return nil, 0, false
		}

		cfgs[i] = *sc
		total += size
	}

	return cfgs, total, true
}

// pickBestSubStreamConfig finds the smallest-encoding SubStreamConfig for
// one sub-stream's raw uint64 values, trying the no-LUT lane and, for
// every configured LUT order, the LUT lane, each crossed with every
// configured diffEnabled setting.
func pickBestSubStreamConfig(sub []uint64, candidates Candidates, budget int, cache *sizeCache, log *logging.Logger) (*config.SubStreamConfig, int, bool) {
	bestSize := budget
	var best *config.SubStreamConfig

	for _, diffEnabled := range candidates.DiffEnabled {
		sc, size, ok := tryBinarizations(sub, diffEnabled, false, 0, 0, candidates, bestSize, cache, log)

		if ok && size < bestSize {
			bestSize = size
			best = sc
		}
	}

	for _, order := range candidates.LutOrders {
		lut, err := transform.BuildLut(sub, order)

		if err != nil {
			log.Debugf("lut order=%d: %v, skipping", order, err)
			continue
		}

		tableCost, err := lutTableCost(lut)

		if err != nil {
			log.Debugf("lut order=%d: table encode failed: %v, skipping", order, err)
			continue
		}

		if tableCost+4 >= bestSize {
			continue
		}

		lutBits := pipeline.DeriveLutBits(lut.Table0)
		innerBudget := bestSize - tableCost

		for _, diffEnabled := range candidates.DiffEnabled {
			sc, size, ok := tryBinarizations(lut.Ranks, diffEnabled, true, order, lutBits, candidates, innerBudget, cache, log)

			if ok && tableCost+size < bestSize {
				bestSize = tableCost + size
				best = sc
			}
		}
	}

	if best == nil {
		return nil, 0, false
	}

	return best, bestSize, true
}

// lutTableCost prices the framed table blob(s) a LUT-enabled sub-stream
// carries ahead of its main entropy stream, using the exact bit widths
// and framing pipeline.Encode itself would produce for this Lut.
func lutTableCost(lut *transform.Lut) (int, error) {
	bits0 := pipeline.DeriveLutBits(lut.Table0)
	blob0, err := pipeline.EncodeUnsignedTable(lut.Table0, bits0)

	if err != nil {
		return 0, err
	}

	cost := pipeline.FrameLength(len(blob0))

	if lut.Order > 0 {
		bits1 := pipeline.DeriveLutOrder1Bits(len(lut.Table0))
		blob1, err := pipeline.EncodeUnsignedTable(lut.Table1, bits1)

		if err != nil {
			return 0, err
		}

		cost += pipeline.FrameLength(len(blob1))
	}

	return cost, nil
}

// tryBinarizations finds the smallest-encoding (binarizationId, parameter,
// contextSelectionId) triple for one already LUT/diff-decided value
// stream. A diff-enabled stream is tried only with the signed candidates
// (SignedBinarizations), any other stream only with the unsigned ones; a
// candidate whose encode fails (out of range or over budget) surfaces here
// as a measureAndCache error and is skipped.
func tryBinarizations(values []uint64, diffEnabled, lutEnabled bool, lutOrder int, lutBits uint, candidates Candidates, budget int, cache *sizeCache, log *logging.Logger) (*config.SubStreamConfig, int, bool) {
	if budget <= 4 {
		return nil, 0, false
	}

	stream := toInt64(values, diffEnabled)
	minV, maxV := minMaxInt64(stream)

	binIDs := candidates.UnsignedBinarizations

	if diffEnabled {
		binIDs = candidates.SignedBinarizations
	}

	bestSize := budget
	var best *config.SubStreamConfig

	for _, binID := range binIDs {
		for _, param := range binarizationParamCandidates(binID, minV, maxV, candidates) {
			if !candidateBoundsOk(binID, minV, maxV, param) {
				continue
			}

			for _, mode := range candidates.ContextSelections {
				rawBudget := bestSize - 4

				if rawBudget <= 0 {
					continue
				}

				rawSize, err := measureAndCache(stream, binID, uint(param), mode, rawBudget, cache)

				if err != nil {
					log.Debugf("substream binId=%s param=%d mode=%s: %v, skipping", binID, param, mode, err)
					continue
				}

				framed := pipeline.FrameLength(rawSize)

				if framed < bestSize {
					bestSize = framed
					best = &config.SubStreamConfig{
						LutTransformationEnabled: lutEnabled,
						LutOrder:                 lutOrder,
						LutBits:                  lutBits,
						DiffCodingEnabled:        diffEnabled,
						BinarizationId:           binID,
						BinarizationParameters:   binParamsSlice(binID, param),
						ContextSelectionId:       mode,
					}
				}
			}
		}
	}

	if best == nil {
		return nil, 0, false
	}

	return best, bestSize, true
}

// measureAndCache runs the full CabacCodec encode for one (stream, binId,
// param, mode) tuple, checking the memoization cache first. Only a
// successful run is ever cached: a cache hit still re-checks the stored
// true size against the caller's maxSize before trusting it, so a value
// cached under a looser budget can still correctly overflow a tighter one.
func measureAndCache(stream []int64, binID entropy.BinarizationId, param uint, mode entropy.ContextMode, maxSize int, cache *sizeCache) (int, error) {
	key := cacheKey{hash: hashInt64s(stream), binID: binID, param: uint64(param), mode: mode}

	if size, ok := cache.get(key); ok {
		if size >= maxSize {
			return 0, entropy.ErrBitstreamOverflow
		}

		return size, nil
	}

	rc := entropy.NewRangeEncoder()
	rc.SetMaxSize(maxSize)
	rc.Start(uint32(len(stream)))
	table := entropy.NewContextTable()
	codec := entropy.NewCabacCodec(table, binID, param, mode)

	for _, v := range stream {
		if err := codec.EncodeSymbol(rc, v); err != nil {
			return 0, err
		}
	}

	out, err := rc.Finish()

	if err != nil {
		return 0, err
	}

	cache.put(key, len(out))
	return len(out), nil
}

func toInt64(values []uint64, diffEnabled bool) []int64 {
	if diffEnabled {
		return transform.Diff(values)
	}

	out := make([]int64, len(values))

	for i, v := range values {
		out[i] = int64(v)
	}

	return out
}

func minMaxInt64(values []int64) (int64, int64) {
	if len(values) == 0 {
		return 0, 0
	}

	minV, maxV := values[0], values[0]

	for _, v := range values[1:] {
		if v < minV {
			minV = v
		}

		if v > maxV {
			maxV = v
		}
	}

	return minV, maxV
}

// deriveBIParam computes ⌊log2(max)⌋+1 (capped at 32), the fixed-width
// field BI needs to represent every value up to max. An empty or all-zero
// stream still needs 1 bit.
func deriveBIParam(maxV int64) uint {
	if maxV <= 0 {
		return 1
	}

	v := uint64(maxV)
	bits := uint(0)

	for v > 0 {
		bits++
		v >>= 1
	}

	if bits > 32 {
		bits = 32
	}

	return bits
}

// deriveTUParam computes min(max,32), TU's cMax.
func deriveTUParam(maxV int64) uint {
	if maxV < 1 {
		return 1
	}

	if maxV > 32 {
		return 32
	}

	return uint(maxV)
}

// binarizationParamCandidates returns the parameter values worth trying
// for binID against a stream whose signed range is [minV,maxV]. BI and TU
// derive a single best-fit parameter directly from maxV; EG and SEG take
// no real parameter; TEG and STEG search the configured candidate list.
func binarizationParamCandidates(binID entropy.BinarizationId, minV, maxV int64, candidates Candidates) []uint64 {
	switch binID {
	case entropy.BI:
		if minV < 0 {
			return nil
		}

		return []uint64{uint64(deriveBIParam(maxV))}
	case entropy.TU:
		if minV < 0 {
			return nil
		}

		return []uint64{uint64(deriveTUParam(maxV))}
	case entropy.EG:
		if minV < 0 {
			return nil
		}

		return []uint64{0}
	case entropy.SEG:
		return []uint64{0}
	case entropy.TEG:
		if minV < 0 {
			return nil
		}

		return candidates.TegParams
	case entropy.STEG:
		return candidates.TegParams
	default:
		return nil
	}
}

// candidateBoundsOk is sbCheck's range-only counterpart: it rejects a
// (binId, param) candidate against a stream's [minV,maxV] bounds before
// spending an encode attempt on it. It mirrors entropy's own sbCheck
// exactly, so it never produces a false negative: any candidate it lets
// through is a candidate the encoder would have accepted too.
func candidateBoundsOk(binID entropy.BinarizationId, minV, maxV int64, param uint64) bool {
	switch binID {
	case entropy.BI:
		return minV >= 0 && param >= 1 && param <= 32 && (uint64(maxV)>>uint(param)) == 0
	case entropy.TU:
		return minV >= 0 && param >= 1 && param <= 32 && uint64(maxV) <= param
	case entropy.EG:
		return minV >= 0
	case entropy.SEG:
		return true
	case entropy.TEG:
		return minV >= 0 && param >= 1 && param <= 32
	case entropy.STEG:
		return param >= 1 && param <= 32
	default:
		return false
	}
}

// binParamsSlice returns the BinarizationParameters a SubStreamConfig
// carries for binID, matching config.Validate's expectations: exactly one
// entry for BI/TU/TEG/STEG, none for EG/SEG.
func binParamsSlice(binID entropy.BinarizationId, param uint64) []uint64 {
	switch binID {
	case entropy.BI, entropy.TU, entropy.TEG, entropy.STEG:
		return []uint64{param}
	default:
		return []uint64{}
	}
}
