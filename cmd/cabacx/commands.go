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

package main

import (
	"bytes"
	"os"

	"github.com/pierrec/lz4/v4"

	"github.com/cabacx/cabacx/analyzer"
	"github.com/cabacx/cabacx/config"
	"github.com/cabacx/cabacx/logging"
	"github.com/cabacx/cabacx/pipeline"
)

func loadConfig(path string) (*config.Configuration, error) {
	data, err := readFile(path)

	if err != nil {
		return nil, err
	}

	var cfg config.Configuration

	if err := cfg.UnmarshalJSON(data); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func runEncode(args *cliArgs) int {
	log := logging.New(logging.ParseLevel(args.logLevel), os.Stderr)
	defer log.Close()

	cfg, err := loadConfig(args.config)

	if err != nil {
		log.Errorf("loading config: %v", err)
		return 1
	}

	raw, err := readFile(args.input)

	if err != nil {
		log.Errorf("reading input: %v", err)
		return 1
	}

	symbols, err := pipeline.BytesToSymbols(raw, cfg.WordSize)

	if err != nil {
		log.Errorf("splitting input into wordSize %d symbols: %v", cfg.WordSize, err)
		return 1
	}

	encoded, err := pipeline.Encode(symbols, cfg)

	if err != nil {
		log.Errorf("encoding: %v", err)
		return 1
	}

	if err := writeFile(args.output, encoded); err != nil {
		log.Errorf("writing output: %v", err)
		return 1
	}

	log.Infof("encoded %d bytes -> %d bytes", len(raw), len(encoded))
	return 0
}

func runDecode(args *cliArgs) int {
	log := logging.New(logging.ParseLevel(args.logLevel), os.Stderr)
	defer log.Close()

	cfg, err := loadConfig(args.config)

	if err != nil {
		log.Errorf("loading config: %v", err)
		return 1
	}

	framed, err := readFile(args.input)

	if err != nil {
		log.Errorf("reading input: %v", err)
		return 1
	}

	symbols, err := pipeline.Decode(framed, cfg)

	if err != nil {
		log.Errorf("decoding: %v", err)
		return 1
	}

	raw := pipeline.SymbolsToBytes(symbols, cfg.WordSize)

	if err := writeFile(args.output, raw); err != nil {
		log.Errorf("writing output: %v", err)
		return 1
	}

	log.Infof("decoded %d bytes -> %d bytes", len(framed), len(raw))
	return 0
}

func runAnalyze(args *cliArgs) int {
	log := logging.New(logging.ParseLevel(args.logLevel), os.Stderr)
	defer log.Close()

	raw, err := readFile(args.input)

	if err != nil {
		log.Errorf("reading input: %v", err)
		return 1
	}

	result, err := analyzer.Analyze(raw, analyzer.DefaultCandidates(), log)

	if err != nil {
		log.Errorf("analyze: %v", err)
		return 1
	}

	out, err := result.Config.MarshalJSON()

	if err != nil {
		log.Errorf("marshaling winning configuration: %v", err)
		return 1
	}

	if err := writeFile(args.output, out); err != nil {
		log.Errorf("writing output: %v", err)
		return 1
	}

	log.Infof("best configuration: %d bytes (input was %d bytes)", result.Size, len(raw))

	if args.compareLZ4 {
		lz4Size, err := lz4CompressedSize(raw)

		if err != nil {
			log.Warningf("--compare-lz4 diagnostic failed: %v", err)
		} else {
			log.Infof("--compare-lz4 diagnostic (not part of the codec path): lz4 = %d bytes, cabacx = %d bytes", lz4Size, result.Size)
		}
	}

	return 0
}

// lz4CompressedSize is a diagnostic-only comparison point for --compare-lz4:
// it never feeds into encode, decode or the analyzer's own search, it just
// tells the operator how the winning Configuration stacks up against a
// generic byte-oriented compressor on the same input.
func lz4CompressedSize(raw []byte) (int, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)

	if _, err := w.Write(raw); err != nil {
		return 0, err
	}

	if err := w.Close(); err != nil {
		return 0, err
	}

	return buf.Len(), nil
}
