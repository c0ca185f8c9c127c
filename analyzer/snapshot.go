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

// snapshot is one vector of sub-stream buffers: the result of applying a
// sequence transform to whatever buffer sat on top of the stack.
type snapshot [][]uint64

// snapshotStack holds the buffers live at each depth of the search:
// entering a sequence-transform candidate pushes the sub-streams it
// produced, trying every LUT/diff/binarization/context combination over
// them, and leaving that candidate pops back to the parent buffer. This
// keeps peak memory at O(search depth) rather than O(candidates tried),
// since only the current branch's buffers are ever retained.
type snapshotStack struct {
	frames []snapshot
}

// newSnapshotStack seeds the stack with the root symbol buffer, wrapped
// as a one-element vector so every frame shares the same snapshot shape.
func newSnapshotStack(root []uint64) *snapshotStack {
	return &snapshotStack{frames: []snapshot{{root}}}
}

func (s *snapshotStack) top() snapshot {
	return s.frames[len(s.frames)-1]
}

func (s *snapshotStack) push(snap snapshot) {
	s.frames = append(s.frames, snap)
}

func (s *snapshotStack) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}
