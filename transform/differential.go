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

// Diff computes the first-difference of an unsigned sequence, promoting
// it to signed: d[i] = s[i] - s[i-1], with s[-1] = 0.
func Diff(symbols []uint64) []int64 {
	diffs := make([]int64, len(symbols))
	var prev uint64

	for i, s := range symbols {
		diffs[i] = int64(s) - int64(prev)
		prev = s
	}

	return diffs
}

// InverseDiff undoes Diff.
func InverseDiff(diffs []int64) []uint64 {
	symbols := make([]uint64, len(diffs))
	var prev int64

	for i, d := range diffs {
		v := prev + d
		symbols[i] = uint64(v)
		prev = v
	}

	return symbols
}
