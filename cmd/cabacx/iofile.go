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
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// readFile transparently gunzips path if it ends in ".gz".
func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)

	if err != nil {
		return nil, err
	}

	defer f.Close()

	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)

		if err != nil {
			return nil, err
		}

		defer gz.Close()
		return io.ReadAll(gz)
	}

	return io.ReadAll(f)
}

// writeFile transparently gzips data if path ends in ".gz".
func writeFile(path string, data []byte) error {
	f, err := os.Create(path)

	if err != nil {
		return err
	}

	defer f.Close()

	if strings.HasSuffix(path, ".gz") {
		gz := gzip.NewWriter(f)

		if _, err := gz.Write(data); err != nil {
			gz.Close()
			return err
		}

		return gz.Close()
	}

	_, err = f.Write(data)
	return err
}
