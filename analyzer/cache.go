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
	"encoding/binary"

	"github.com/cabacx/cabacx/entropy"

	"github.com/cespare/xxhash/v2"
)

// cacheKey identifies one (sub-stream contents, binarization, context mode)
// measurement. The same sub-stream bytes recur constantly across the
// search: no_transform's single sub-stream is byte-identical no matter
// which LUT/diff branch produced it when neither is actually enabled, and
// distinct sequenceTransformationParameter values often reduce to the
// same values/runs split. Hashing the stream instead of keying on it
// directly keeps the cache cheap to probe.
type cacheKey struct {
	hash  uint64
	binID entropy.BinarizationId
	param uint64
	mode  entropy.ContextMode
}

// sizeCache memoizes successful full-stream encode sizes. It never caches
// a failure (overflow or out-of-range): a candidate that overflowed under
// one maxSize budget may well fit under a looser one tried later for a
// different competing branch, and caching the failure would falsely
// reject that later, valid attempt.
type sizeCache struct {
	entries map[cacheKey]int
}

func newSizeCache() *sizeCache {
	return &sizeCache{entries: make(map[cacheKey]int)}
}

func (c *sizeCache) get(key cacheKey) (int, bool) {
	size, ok := c.entries[key]
	return size, ok
}

func (c *sizeCache) put(key cacheKey, size int) {
	c.entries[key] = size
}

// hashInt64s hashes a stream of signed symbols (a diff-coded sub-stream,
// or an unsigned one reinterpreted bit-for-bit) into the 64-bit digest
// half of a cacheKey.
func hashInt64s(values []int64) uint64 {
	h := xxhash.New()
	var scratch [8]byte

	for _, v := range values {
		binary.LittleEndian.PutUint64(scratch[:], uint64(v))
		h.Write(scratch[:])
	}

	return h.Sum64()
}
