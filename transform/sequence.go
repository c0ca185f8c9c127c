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

// Package transform implements the sequence transforms that run ahead of
// entropy coding (no_transform, equality, match, rle), the LUT frequency
// remap, and the differential promotion to a signed stream. Every
// transform is total and exactly invertible for its declared parameter,
// following the kanzi.ByteTransform Forward/Inverse shape this package's
// integer-stream transforms are modeled on.
package transform

import "github.com/cabacx/cabacx/cerrors"

// SequenceId names one of the four sequence transforms.
type SequenceId int

const (
	NoTransformId SequenceId = iota
	EqualityId
	MatchId
	RleId
)

func (id SequenceId) String() string {
	switch id {
	case NoTransformId:
		return "no_transform"
	case EqualityId:
		return "equality_coding"
	case MatchId:
		return "match_coding"
	case RleId:
		return "rle_coding"
	default:
		return "unknown"
	}
}

// NumSubStreams returns how many sub-streams the transform produces, per
// its fixed shape.
func (id SequenceId) NumSubStreams() int {
	switch id {
	case NoTransformId:
		return 1
	case EqualityId:
		return 2
	case MatchId:
		return 3
	case RleId:
		return 2
	default:
		return 0
	}
}

// SequenceTransform applies one sequence transform and its inverse. The
// parameter is the match window size, the RLE guard, or unused (0) for
// no_transform/equality.
type SequenceTransform interface {
	Forward(symbols []uint64, param uint64) ([][]uint64, error)
	Inverse(subStreams [][]uint64, param uint64) ([]uint64, error)
}

// NoTransform is the identity: one sub-stream, unchanged.
type NoTransform struct{}

func (NoTransform) Forward(symbols []uint64, _ uint64) ([][]uint64, error) {
	out := make([]uint64, len(symbols))
	copy(out, symbols)
	return [][]uint64{out}, nil
}

func (NoTransform) Inverse(subStreams [][]uint64, _ uint64) ([]uint64, error) {
	if len(subStreams) != 1 {
		return nil, cerrors.Newf(cerrors.ConfigInvalid, "no_transform expects 1 sub-stream, got %d", len(subStreams))
	}

	out := make([]uint64, len(subStreams[0]))
	copy(out, subStreams[0])
	return out, nil
}

// EqualityTransform splits a stream into a repeat-flag stream and a
// values stream holding every symbol that differs from its predecessor.
type EqualityTransform struct{}

func (EqualityTransform) Forward(symbols []uint64, _ uint64) ([][]uint64, error) {
	flags := make([]uint64, len(symbols))
	values := make([]uint64, 0, len(symbols))
	var prev uint64

	for i, s := range symbols {
		if i > 0 {
			prev = symbols[i-1]
		} else {
			prev = 0
		}

		if s == prev {
			flags[i] = 1
		} else {
			flags[i] = 0
			values = append(values, s)
		}
	}

	return [][]uint64{flags, values}, nil
}

func (EqualityTransform) Inverse(subStreams [][]uint64, _ uint64) ([]uint64, error) {
	if len(subStreams) != 2 {
		return nil, cerrors.Newf(cerrors.ConfigInvalid, "equality expects 2 sub-streams, got %d", len(subStreams))
	}

	flags, values := subStreams[0], subStreams[1]
	out := make([]uint64, len(flags))
	var prev uint64
	vi := 0

	for i, f := range flags {
		if f == 1 {
			out[i] = prev
		} else {
			if vi >= len(values) {
				return nil, cerrors.New(cerrors.Truncated, "equality values sub-stream exhausted before flags")
			}

			out[i] = values[vi]
			vi++
		}

		prev = out[i]
	}

	if vi != len(values) {
		return nil, cerrors.New(cerrors.ConfigInvalid, "equality values sub-stream has unconsumed entries")
	}

	return out, nil
}

// RleTransform replaces runs of equal symbols with (value, runLength)
// pairs, splitting any run longer than guard into guard-sized chunks.
type RleTransform struct{}

func (RleTransform) Forward(symbols []uint64, guard uint64) ([][]uint64, error) {
	if guard == 0 {
		return nil, cerrors.New(cerrors.ConfigInvalid, "rle guard must be >= 1")
	}

	values := make([]uint64, 0, len(symbols))
	runs := make([]uint64, 0, len(symbols))
	n := len(symbols)
	i := 0

	for i < n {
		v := symbols[i]
		j := i + 1

		for j < n && symbols[j] == v {
			j++
		}

		remaining := uint64(j - i)

		for remaining > 0 {
			take := remaining

			if take > guard {
				take = guard
			}

			values = append(values, v)
			runs = append(runs, take)
			remaining -= take
		}

		i = j
	}

	return [][]uint64{values, runs}, nil
}

func (RleTransform) Inverse(subStreams [][]uint64, guard uint64) ([]uint64, error) {
	if len(subStreams) != 2 {
		return nil, cerrors.Newf(cerrors.ConfigInvalid, "rle expects 2 sub-streams, got %d", len(subStreams))
	}

	values, runs := subStreams[0], subStreams[1]

	if len(values) != len(runs) {
		return nil, cerrors.New(cerrors.ConfigInvalid, "rle value/runLength sub-streams have mismatched lengths")
	}

	out := make([]uint64, 0, len(values))

	for k, v := range values {
		run := runs[k]

		if guard > 0 && run > guard {
			return nil, cerrors.Newf(cerrors.ConfigInvalid, "run length %d exceeds guard %d", run, guard)
		}

		for c := uint64(0); c < run; c++ {
			out = append(out, v)
		}
	}

	return out, nil
}

// minMatchLen is the shortest run of equal symbols the match transform
// will encode as a match rather than as literals; below this length a
// match token (pointer + length) costs more than the literals it
// replaces.
const minMatchLen = 2

// MatchTransform is an LZ77-style sequence transform: for each position
// it searches the previous windowSize symbols for the longest match of
// the upcoming tail, grounded on LZCodec.go's window-search shape but
// operating on integer symbols instead of bytes with the search window
// held as a plain slice scan rather than a hash chain.
type MatchTransform struct{}

func (MatchTransform) Forward(symbols []uint64, windowSize uint64) ([][]uint64, error) {
	n := len(symbols)
	pointers := make([]uint64, 0, n)
	lengths := make([]uint64, 0, n)
	literals := make([]uint64, 0, n)
	i := 0

	for i < n {
		bestLen, bestDist := 0, 0
		start := i - int(windowSize)

		if start < 0 {
			start = 0
		}

		for j := start; j < i; j++ {
			l := 0

			for i+l < n && symbols[j+l] == symbols[i+l] {
				l++
			}

			if l > bestLen {
				bestLen = l
				bestDist = i - j
			}
		}

		if bestLen >= minMatchLen {
			pointers = append(pointers, uint64(bestDist))
			lengths = append(lengths, uint64(bestLen))
			i += bestLen
		} else {
			pointers = append(pointers, 0)
			lengths = append(lengths, 0)
			literals = append(literals, symbols[i])
			i++
		}
	}

	return [][]uint64{pointers, lengths, literals}, nil
}

func (MatchTransform) Inverse(subStreams [][]uint64, _ uint64) ([]uint64, error) {
	if len(subStreams) != 3 {
		return nil, cerrors.Newf(cerrors.ConfigInvalid, "match expects 3 sub-streams, got %d", len(subStreams))
	}

	pointers, lengths, literals := subStreams[0], subStreams[1], subStreams[2]

	if len(pointers) != len(lengths) {
		return nil, cerrors.New(cerrors.ConfigInvalid, "match pointer/length sub-streams have mismatched lengths")
	}

	out := make([]uint64, 0, len(pointers))
	li := 0

	for k, length := range lengths {
		if length == 0 {
			if li >= len(literals) {
				return nil, cerrors.New(cerrors.Truncated, "match literal sub-stream exhausted before tokens")
			}

			out = append(out, literals[li])
			li++
			continue
		}

		dist := pointers[k]

		if dist == 0 || dist > uint64(len(out)) {
			return nil, cerrors.Newf(cerrors.ConfigInvalid, "match pointer %d out of range at output length %d", dist, len(out))
		}

		start := uint64(len(out)) - dist

		for c := uint64(0); c < length; c++ {
			out = append(out, out[start+c])
		}
	}

	if li != len(literals) {
		return nil, cerrors.New(cerrors.ConfigInvalid, "match literal sub-stream has unconsumed entries")
	}

	return out, nil
}

// New returns the SequenceTransform implementation for id.
func New(id SequenceId) SequenceTransform {
	switch id {
	case EqualityId:
		return EqualityTransform{}
	case MatchId:
		return MatchTransform{}
	case RleId:
		return RleTransform{}
	default:
		return NoTransform{}
	}
}
