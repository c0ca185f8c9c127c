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

// Package cerrors classifies every fault the codec surface can raise into
// a small fixed taxonomy, so callers (in particular the analyzer) can
// decide by kind alone whether a fault is locally recoverable.
package cerrors

import (
	"errors"
	"fmt"
)

// Kind names one entry of the error taxonomy.
type Kind int

const (
	ConfigInvalid Kind = iota
	InputMisaligned
	BinarizationOutOfRange
	BitstreamOverflow
	LutOverflow
	Truncated
	Unknown
)

func (k Kind) String() string {
	switch k {
	case ConfigInvalid:
		return "ConfigInvalid"
	case InputMisaligned:
		return "InputMisaligned"
	case BinarizationOutOfRange:
		return "BinarizationOutOfRange"
	case BitstreamOverflow:
		return "BitstreamOverflow"
	case LutOverflow:
		return "LutOverflow"
	case Truncated:
		return "Truncated"
	default:
		return "Unknown"
	}
}

// Recoverable reports whether the analyzer may treat a fault of this kind
// as "skip this candidate" rather than a fatal, propagate-to-caller error.
func (k Kind) Recoverable() bool {
	switch k {
	case BinarizationOutOfRange, BitstreamOverflow, LutOverflow:
		return true
	default:
		return false
	}
}

// Fault is the error type the config, transform and pipeline packages
// return for domain faults, and entropy for a truncated decode; entropy's
// ErrBinarizationOutOfRange and ErrBitstreamOverflow and bitio's Error are
// plain errors, for which KindOf reports Unknown. Plain Go errors (I/O,
// encoding/json) are wrapped with Kind Unknown when they cross a boundary
// that must report a Kind.
type Fault struct {
	Kind Kind
	Msg  string
	Err  error
}

func (this *Fault) Error() string {
	if this.Err != nil {
		return fmt.Sprintf("%s: %s: %v", this.Kind, this.Msg, this.Err)
	}

	return fmt.Sprintf("%s: %s", this.Kind, this.Msg)
}

func (this *Fault) Unwrap() error {
	return this.Err
}

// New creates a Fault with no wrapped cause.
func New(kind Kind, msg string) *Fault {
	return &Fault{Kind: kind, Msg: msg}
}

// Newf creates a Fault with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Fault {
	return &Fault{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind to an existing error.
func Wrap(kind Kind, msg string, err error) *Fault {
	return &Fault{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind of err if it is (or wraps) a *Fault, otherwise
// Unknown.
func KindOf(err error) Kind {
	var f *Fault

	if errors.As(err, &f) {
		return f.Kind
	}

	return Unknown
}
