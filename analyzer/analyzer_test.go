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

package analyzer

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cabacx/cabacx/config"
	"github.com/cabacx/cabacx/entropy"
	"github.com/cabacx/cabacx/logging"
	"github.com/cabacx/cabacx/pipeline"
	"github.com/cabacx/cabacx/transform"
)

func testCandidates() Candidates {
	return Candidates{
		WordSizes:             []uint{1},
		SequenceTransforms:    []transform.SequenceId{transform.NoTransformId},
		DiffEnabled:           []bool{false, true},
		LutOrders:             []int{0, 1},
		UnsignedBinarizations: []entropy.BinarizationId{entropy.BI, entropy.TU, entropy.EG},
		SignedBinarizations:   []entropy.BinarizationId{entropy.SEG},
		ContextSelections:     []entropy.ContextMode{entropy.ContextBypass, entropy.ContextOrder0},
	}
}

// TestAnalyzeReportedSizeMatchesEncoder is Testable Property 6: the size
// Analyze reports for its winning Configuration equals what pipeline.Encode
// actually produces when replaying that Configuration.
func TestAnalyzeReportedSizeMatchesEncoder(t *testing.T) {
	raw := []byte{1, 2, 2, 2, 3, 3, 1, 1, 1, 1, 2, 2, 2, 2, 3, 5, 5, 5, 0, 0}

	result, err := Analyze(raw, testCandidates(), nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	symbols, err := pipeline.BytesToSymbols(raw, result.Config.WordSize)
	require.NoError(t, err)

	encoded, err := pipeline.Encode(symbols, result.Config)
	require.NoError(t, err)

	assert.Equal(t, result.Size, len(encoded))
}

// TestAnalyzeSelectsBestAmongExhaustedLane is Testable Property 7: no
// candidate this test enumerates by hand, in the exact lane Analyze was
// restricted to, beats the Configuration Analyze actually returned.
func TestAnalyzeSelectsBestAmongExhaustedLane(t *testing.T) {
	raw := []byte{9, 9, 9, 1, 2, 3, 9, 9, 1, 1, 1, 4, 4, 4, 4, 9}
	candidates := Candidates{
		WordSizes:             []uint{1},
		SequenceTransforms:    []transform.SequenceId{transform.NoTransformId},
		DiffEnabled:           []bool{false},
		LutOrders:             nil,
		UnsignedBinarizations: []entropy.BinarizationId{entropy.BI, entropy.TU, entropy.EG},
		SignedBinarizations:   nil,
		ContextSelections: []entropy.ContextMode{
			entropy.ContextBypass, entropy.ContextOrder0, entropy.ContextOrder1, entropy.ContextOrder2,
		},
	}

	result, err := Analyze(raw, candidates, nil)
	require.NoError(t, err)

	symbols, err := pipeline.BytesToSymbols(raw, 1)
	require.NoError(t, err)

	maxV := int64(0)
	for _, s := range symbols {
		if int64(s) > maxV {
			maxV = int64(s)
		}
	}

	handParams := map[entropy.BinarizationId][]uint64{
		entropy.BI: {uint64(deriveBIParam(maxV))},
		entropy.TU: {uint64(deriveTUParam(maxV))},
		entropy.EG: {0},
	}

	best := unbounded

	for _, binID := range candidates.UnsignedBinarizations {
		for _, param := range handParams[binID] {
			for _, mode := range candidates.ContextSelections {
				params := binParamsSlice(binID, param)
				cfg := &config.Configuration{
					WordSize:                        1,
					SequenceTransformationId:        transform.NoTransformId,
					SequenceTransformationParameter: 0,
					SubStreamConfigs: []config.SubStreamConfig{{
						BinarizationId:         binID,
						BinarizationParameters: params,
						ContextSelectionId:     mode,
					}},
				}

				encoded, err := pipeline.Encode(symbols, cfg)

				if err != nil {
					continue
				}

				if len(encoded) < best {
					best = len(encoded)
				}
			}
		}
	}

	require.Less(t, best, unbounded)
	assert.Equal(t, best, result.Size)
}

// rleFavoringCandidates restricts the search to bypass contexts only, so
// no_transform can't close the gap on a long repeated run through context
// adaptation alone: the comparison has to come from the sequence transform
// itself.
func rleFavoringCandidates() Candidates {
	return Candidates{
		WordSizes:             []uint{1},
		SequenceTransforms:    []transform.SequenceId{transform.NoTransformId, transform.EqualityId, transform.RleId, transform.MatchId},
		MatchWindowSizes:      []uint64{64},
		RleGuards:             []uint64{255},
		DiffEnabled:           []bool{false},
		LutOrders:             nil,
		UnsignedBinarizations: []entropy.BinarizationId{entropy.BI, entropy.TU, entropy.EG},
		SignedBinarizations:   nil,
		ContextSelections:     []entropy.ContextMode{entropy.ContextBypass},
	}
}

// TestAnalyzeSelectsRleForLongRepeatedRun is Testable Property 9: with
// multiple sequence transforms actually in competition, a long run of one
// repeated byte collapses to a single (value, runLength) pair under
// rle_coding, which no_transform, equality_coding and match_coding all lose
// to once every candidate is priced by the same exhaustive search.
func TestAnalyzeSelectsRleForLongRepeatedRun(t *testing.T) {
	raw := make([]byte, 200)

	for i := range raw {
		raw[i] = 5
	}

	result, err := Analyze(raw, rleFavoringCandidates(), nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, transform.RleId, result.Config.SequenceTransformationId)
}

// equalityFavoringCandidates omits match_coding: an input this periodic
// hands match_coding a long-range self-match that would win outright, which
// would defeat the point of this fixture (isolating equality_coding versus
// rle_coding). Bypass-only contexts again keep no_transform from closing
// the gap through adaptation.
func equalityFavoringCandidates() Candidates {
	return Candidates{
		WordSizes:             []uint{1},
		SequenceTransforms:    []transform.SequenceId{transform.NoTransformId, transform.EqualityId, transform.RleId},
		RleGuards:             []uint64{64},
		DiffEnabled:           []bool{false},
		LutOrders:             nil,
		UnsignedBinarizations: []entropy.BinarizationId{entropy.BI, entropy.TU, entropy.EG},
		SignedBinarizations:   nil,
		ContextSelections:     []entropy.ContextMode{entropy.ContextBypass},
	}
}

// TestAnalyzeSelectsEqualityForShortRunsWithOutlier is Testable Property 10:
// a stream of evenly-sized short runs, plus one long outlier run, forces
// rle_coding's shared run-length parameter wide enough that its per-run
// overhead outweighs its savings, while equality_coding's flag stream pays
// a flat one bin per repeat regardless of how any one run is sized.
func TestAnalyzeSelectsEqualityForShortRunsWithOutlier(t *testing.T) {
	raw := make([]byte, 0, 235)

	for i := 0; i < 50; i++ {
		raw = append(raw, 7, 7, 8, 8)
	}

	raw = append(raw, 7)

	for i := 0; i < 34; i++ {
		raw = append(raw, 8)
	}

	result, err := Analyze(raw, equalityFavoringCandidates(), nil)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, transform.EqualityId, result.Config.SequenceTransformationId)
}

// TestSizeCacheHonorsPerCallBudget is Testable Property 8 exercised
// directly against the memoization cache: a cache hit must re-derive
// overflow against the caller's own maxSize rather than trusting whatever
// budget first populated the entry, in both directions (a tighter budget
// than the one that cached the value must still overflow; a looser one
// must still succeed with the exact cached size).
func TestSizeCacheHonorsPerCallBudget(t *testing.T) {
	stream := []int64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cache := newSizeCache()

	size1, err := measureAndCache(stream, entropy.BI, 4, entropy.ContextBypass, 1<<20, cache)
	require.NoError(t, err)
	require.Greater(t, size1, 0)

	_, err = measureAndCache(stream, entropy.BI, 4, entropy.ContextBypass, size1, cache)
	assert.ErrorIs(t, err, entropy.ErrBitstreamOverflow)

	size3, err := measureAndCache(stream, entropy.BI, 4, entropy.ContextBypass, size1+1, cache)
	require.NoError(t, err)
	assert.Equal(t, size1, size3)
}

// TestSizeCacheNeverCachesFailure documents the correctness fix behind the
// cache design: a failed (overflowing) attempt must not poison a later
// attempt at the same key under a looser budget.
func TestSizeCacheNeverCachesFailure(t *testing.T) {
	stream := []int64{100, 200, 300, 400}
	cache := newSizeCache()

	_, err := measureAndCache(stream, entropy.BI, 9, entropy.ContextBypass, 1, cache)
	require.Error(t, err)

	size, err := measureAndCache(stream, entropy.BI, 9, entropy.ContextBypass, 1<<20, cache)
	require.NoError(t, err)
	assert.Greater(t, size, 0)
}

// TestPickBestSubStreamConfigPrefersLutWhenItWins checks the LUT lane's
// table cost is folded into its comparison against the no-LUT lane rather
// than compared against it on the main stream alone.
func TestPickBestSubStreamConfigPrefersLutWhenItWins(t *testing.T) {
	sub := make([]uint64, 0, 200)

	for i := 0; i < 50; i++ {
		sub = append(sub, 7, 7, 7, 7)
	}

	candidates := testCandidates()
	log := logging.New(logging.Fatal, io.Discard)
	defer log.Close()
	sc, size, ok := pickBestSubStreamConfig(sub, candidates, unbounded, newSizeCache(), log)
	require.True(t, ok)
	require.NotNil(t, sc)
	assert.Greater(t, size, 0)
}
