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
	"fmt"
	"os"
	"strings"
)

const appHeader = "cabacx (C) 2026, CABAC integer-stream compressor"

// cliArgs holds one invocation's parsed flags: manual --flag=value
// scanning into a plain struct rather than the stdlib flag package.
type cliArgs struct {
	mode        string // "encode", "decode", "analyze"
	input       string
	output      string
	config      string
	logLevel    string
	compareLZ4  bool
}

func main() {
	args, err := processCommandLine(os.Args)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printUsage()
		os.Exit(1)
	}

	var code int

	switch args.mode {
	case "encode":
		code = runEncode(args)
	case "decode":
		code = runDecode(args)
	case "analyze":
		code = runAnalyze(args)
	default:
		printUsage()
		code = 1
	}

	os.Exit(code)
}

func processCommandLine(rawArgs []string) (*cliArgs, error) {
	args := &cliArgs{logLevel: "info"}

	if len(rawArgs) < 2 {
		return nil, fmt.Errorf("missing subcommand: expected encode, decode or analyze")
	}

	switch rawArgs[1] {
	case "encode", "decode", "analyze":
		args.mode = rawArgs[1]
	default:
		return nil, fmt.Errorf("unrecognized subcommand %q", rawArgs[1])
	}

	for _, arg := range rawArgs[2:] {
		arg = strings.TrimSpace(arg)

		switch {
		case arg == "--compare-lz4":
			args.compareLZ4 = true
		case strings.HasPrefix(arg, "--input="):
			args.input = strings.TrimPrefix(arg, "--input=")
		case strings.HasPrefix(arg, "--output="):
			args.output = strings.TrimPrefix(arg, "--output=")
		case strings.HasPrefix(arg, "--config="):
			args.config = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "--log-level="):
			args.logLevel = strings.TrimPrefix(arg, "--log-level=")
		default:
			return nil, fmt.Errorf("unrecognized option %q", arg)
		}
	}

	if args.input == "" {
		return nil, fmt.Errorf("missing --input")
	}

	if args.output == "" {
		return nil, fmt.Errorf("missing --output")
	}

	if args.mode != "analyze" && args.config == "" {
		return nil, fmt.Errorf("missing --config")
	}

	return args, nil
}

func printUsage() {
	fmt.Println(appHeader)
	fmt.Println()
	fmt.Println("  cabacx analyze --input=<file> --output=<config.json[.gz]> [--log-level=<level>] [--compare-lz4]")
	fmt.Println("        search the Configuration space and write the winning one as JSON")
	fmt.Println()
	fmt.Println("  cabacx encode --input=<file> --config=<config.json[.gz]> --output=<file> [--log-level=<level>]")
	fmt.Println("        encode raw input under an already-discovered Configuration")
	fmt.Println()
	fmt.Println("  cabacx decode --input=<file> --config=<config.json[.gz]> --output=<file> [--log-level=<level>]")
	fmt.Println("        decode a bytestream produced by encode; --config must be the same file")
	fmt.Println()
	fmt.Println("  --log-level=trace|debug|info|warning|error|fatal (default info)")
}
