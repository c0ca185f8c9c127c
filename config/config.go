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

// Package config holds the Configuration record: an immutable, JSON
// round-trippable description of every choice the pipeline made (or the
// analyzer discovered) to encode one block. It generalizes the loose
// map[string]interface{} option bags this repo's compressors used to
// pass around (see BlockCompressor construction in app/Kanzi.go) into a
// single typed, validated record.
package config

import (
	"encoding/json"
	"fmt"

	"github.com/cabacx/cabacx/cerrors"
	"github.com/cabacx/cabacx/entropy"
	"github.com/cabacx/cabacx/transform"
)

// SubStreamConfig configures how one sub-stream produced by the sequence
// transform is encoded.
type SubStreamConfig struct {
	LutTransformationEnabled bool
	LutOrder                 int
	LutBits                  uint
	DiffCodingEnabled        bool
	BinarizationId           entropy.BinarizationId
	BinarizationParameters   []uint64
	ContextSelectionId       entropy.ContextMode
}

// Configuration is the immutable record of every pipeline choice for one
// block.
type Configuration struct {
	WordSize                        uint
	SequenceTransformationId        transform.SequenceId
	SequenceTransformationParameter uint64
	SubStreamConfigs                []SubStreamConfig
}

var validWordSizes = map[uint]bool{1: true, 2: true, 4: true, 8: true}

// Validate checks every configuration invariant. It returns a
// cerrors.Fault of Kind ConfigInvalid on the first violation found.
func (c *Configuration) Validate() error {
	if !validWordSizes[c.WordSize] {
		return cerrors.Newf(cerrors.ConfigInvalid, "wordSize %d not in {1,2,4,8}", c.WordSize)
	}

	want := c.SequenceTransformationId.NumSubStreams()

	if want == 0 {
		return cerrors.Newf(cerrors.Unknown, "unrecognized sequenceTransformationId %d", c.SequenceTransformationId)
	}

	if len(c.SubStreamConfigs) != want {
		return cerrors.Newf(cerrors.ConfigInvalid, "%s produces %d sub-streams, got %d configs",
			c.SequenceTransformationId, want, len(c.SubStreamConfigs))
	}

	for i, sc := range c.SubStreamConfigs {
		if err := sc.validate(i); err != nil {
			return err
		}
	}

	return nil
}

func (sc *SubStreamConfig) validate(index int) error {
	if sc.LutTransformationEnabled && (sc.LutOrder < 0 || sc.LutOrder > 2) {
		return cerrors.Newf(cerrors.ConfigInvalid, "sub-stream %d: lutOrder %d not in [0,2]", index, sc.LutOrder)
	}

	if sc.BinarizationId.Signed() && !sc.DiffCodingEnabled {
		return cerrors.Newf(cerrors.ConfigInvalid,
			"sub-stream %d: signed binarization %s requires diffCodingEnabled", index, sc.BinarizationId)
	}

	switch sc.BinarizationId {
	case entropy.BI, entropy.TU, entropy.TEG, entropy.STEG:
		if len(sc.BinarizationParameters) != 1 {
			return cerrors.Newf(cerrors.ConfigInvalid, "sub-stream %d: %s requires exactly 1 parameter", index, sc.BinarizationId)
		}

		p := sc.BinarizationParameters[0]

		if p < 1 || p > 32 {
			return cerrors.Newf(cerrors.ConfigInvalid, "sub-stream %d: %s parameter %d not in [1,32]", index, sc.BinarizationId, p)
		}
	case entropy.EG, entropy.SEG:
		if len(sc.BinarizationParameters) != 0 {
			return cerrors.Newf(cerrors.ConfigInvalid, "sub-stream %d: %s takes no parameter", index, sc.BinarizationId)
		}
	default:
		return cerrors.Newf(cerrors.Unknown, "sub-stream %d: unrecognized binarizationId %d", index, sc.BinarizationId)
	}

	return nil
}

// jsonConfiguration mirrors Configuration with the lowercase-string enum
// encoding this package's JSON boundary requires.
type jsonConfiguration struct {
	WordSize                        uint                  `json:"wordSize"`
	SequenceTransformationId        string                `json:"sequenceTransformationId"`
	SequenceTransformationParameter uint64                `json:"sequenceTransformationParameter"`
	SubStreamConfigs                []jsonSubStreamConfig `json:"transformedSequenceConfigurations"`
}

type jsonSubStreamConfig struct {
	LutTransformationEnabled bool     `json:"lutTransformationEnabled"`
	LutOrder                 int      `json:"lutOrder"`
	LutBits                  uint     `json:"lutBits"`
	DiffCodingEnabled        bool     `json:"diffCodingEnabled"`
	BinarizationId           string   `json:"binarizationId"`
	BinarizationParameters   []uint64 `json:"binarizationParameters"`
	ContextSelectionId       string   `json:"contextSelectionId"`
}

func sequenceIdToString(id transform.SequenceId) (string, error) {
	switch id {
	case transform.NoTransformId, transform.EqualityId, transform.MatchId, transform.RleId:
		return id.String(), nil
	default:
		return "", cerrors.Newf(cerrors.Unknown, "unrecognized sequenceTransformationId %d", id)
	}
}

func sequenceIdFromString(s string) (transform.SequenceId, error) {
	switch s {
	case "no_transform":
		return transform.NoTransformId, nil
	case "equality_coding":
		return transform.EqualityId, nil
	case "match_coding":
		return transform.MatchId, nil
	case "rle_coding":
		return transform.RleId, nil
	default:
		return 0, cerrors.Newf(cerrors.Unknown, "unrecognized sequenceTransformationId %q", s)
	}
}

func contextSelectionToString(m entropy.ContextMode) (string, error) {
	switch m {
	case entropy.ContextBypass:
		return "bypass", nil
	case entropy.ContextOrder0:
		return "adaptive_coding_order_0", nil
	case entropy.ContextOrder1:
		return "adaptive_coding_order_1", nil
	case entropy.ContextOrder2:
		return "adaptive_coding_order_2", nil
	default:
		return "", cerrors.Newf(cerrors.Unknown, "unrecognized contextSelectionId %d", m)
	}
}

func contextSelectionFromString(s string) (entropy.ContextMode, error) {
	switch s {
	case "bypass":
		return entropy.ContextBypass, nil
	case "adaptive_coding_order_0":
		return entropy.ContextOrder0, nil
	case "adaptive_coding_order_1":
		return entropy.ContextOrder1, nil
	case "adaptive_coding_order_2":
		return entropy.ContextOrder2, nil
	default:
		return 0, cerrors.Newf(cerrors.Unknown, "unrecognized contextSelectionId %q", s)
	}
}

func binarizationIdToString(id entropy.BinarizationId) (string, error) {
	switch id {
	case entropy.BI, entropy.TU, entropy.EG, entropy.SEG, entropy.TEG, entropy.STEG:
		return id.String(), nil
	default:
		return "", cerrors.Newf(cerrors.Unknown, "unrecognized binarizationId %d", id)
	}
}

func binarizationIdFromString(s string) (entropy.BinarizationId, error) {
	switch s {
	case "BI":
		return entropy.BI, nil
	case "TU":
		return entropy.TU, nil
	case "EG":
		return entropy.EG, nil
	case "SEG":
		return entropy.SEG, nil
	case "TEG":
		return entropy.TEG, nil
	case "STEG":
		return entropy.STEG, nil
	default:
		return 0, cerrors.Newf(cerrors.Unknown, "unrecognized binarizationId %q", s)
	}
}

// MarshalJSON encodes c with the lowercase-string enum spelling this
// package's JSON boundary mandates.
func (c Configuration) MarshalJSON() ([]byte, error) {
	seqStr, err := sequenceIdToString(c.SequenceTransformationId)

	if err != nil {
		return nil, err
	}

	jc := jsonConfiguration{
		WordSize:                        c.WordSize,
		SequenceTransformationId:        seqStr,
		SequenceTransformationParameter: c.SequenceTransformationParameter,
		SubStreamConfigs:                make([]jsonSubStreamConfig, len(c.SubStreamConfigs)),
	}

	for i, sc := range c.SubStreamConfigs {
		binStr, err := binarizationIdToString(sc.BinarizationId)

		if err != nil {
			return nil, err
		}

		ctxStr, err := contextSelectionToString(sc.ContextSelectionId)

		if err != nil {
			return nil, err
		}

		params := sc.BinarizationParameters

		if params == nil {
			params = []uint64{}
		}

		jc.SubStreamConfigs[i] = jsonSubStreamConfig{
			LutTransformationEnabled: sc.LutTransformationEnabled,
			LutOrder:                 sc.LutOrder,
			LutBits:                  sc.LutBits,
			DiffCodingEnabled:        sc.DiffCodingEnabled,
			BinarizationId:           binStr,
			BinarizationParameters:   params,
			ContextSelectionId:       ctxStr,
		}
	}

	return json.Marshal(jc)
}

// UnmarshalJSON is MarshalJSON's inverse. It does not call Validate:
// callers must call Validate explicitly at the JSON boundary, since a
// malformed configuration should fail loudly, not silently.
func (c *Configuration) UnmarshalJSON(data []byte) error {
	var jc jsonConfiguration

	if err := json.Unmarshal(data, &jc); err != nil {
		return cerrors.Wrap(cerrors.Unknown, "malformed configuration JSON", err)
	}

	seqId, err := sequenceIdFromString(jc.SequenceTransformationId)

	if err != nil {
		return err
	}

	c.WordSize = jc.WordSize
	c.SequenceTransformationId = seqId
	c.SequenceTransformationParameter = jc.SequenceTransformationParameter
	c.SubStreamConfigs = make([]SubStreamConfig, len(jc.SubStreamConfigs))

	for i, jsc := range jc.SubStreamConfigs {
		binId, err := binarizationIdFromString(jsc.BinarizationId)

		if err != nil {
			return fmt.Errorf("sub-stream %d: %w", i, err)
		}

		ctxId, err := contextSelectionFromString(jsc.ContextSelectionId)

		if err != nil {
			return fmt.Errorf("sub-stream %d: %w", i, err)
		}

		c.SubStreamConfigs[i] = SubStreamConfig{
			LutTransformationEnabled: jsc.LutTransformationEnabled,
			LutOrder:                 jsc.LutOrder,
			LutBits:                  jsc.LutBits,
			DiffCodingEnabled:        jsc.DiffCodingEnabled,
			BinarizationId:           binId,
			BinarizationParameters:   jsc.BinarizationParameters,
			ContextSelectionId:       ctxId,
		}
	}

	return nil
}
