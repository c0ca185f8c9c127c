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

// Package logging provides the write-only, level-filtered sink every
// other package logs through. It generalizes the event/listener pattern
// (see Event.go/Listener in the source tree this package descends from)
// into six severity levels feeding a single buffered channel drained by
// one background goroutine, so callers never block on a slow writer.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Level is one of the six severities a Logger accepts.
type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warning
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Trace:
		return "TRACE"
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

type entry struct {
	level Level
	msg   string
	when  time.Time
}

func (this *entry) String() string {
	return fmt.Sprintf("{ \"level\":\"%s\", \"time\":%d, \"msg\":%q }",
		this.level, this.when.UnixNano()/1000000, this.msg)
}

// Logger is a leveled, non-blocking log sink. Entries below the
// configured threshold are discarded at the call site and never reach
// the channel.
type Logger struct {
	threshold Level
	ch        chan *entry
	done      chan struct{}
}

// New starts a Logger that writes accepted entries to out, one per line,
// via a background goroutine. Call Close to drain and stop it.
func New(threshold Level, out io.Writer) *Logger {
	this := &Logger{
		threshold: threshold,
		ch:        make(chan *entry, 256),
		done:      make(chan struct{}),
	}

	go this.drain(out)
	return this
}

// Default returns a Logger writing to stderr at Info threshold, the
// same default the CLI collaborator installs when --log-level is unset.
func Default() *Logger {
	return New(Info, os.Stderr)
}

func (this *Logger) drain(out io.Writer) {
	defer close(this.done)

	for e := range this.ch {
		fmt.Fprintln(out, e.String())
	}
}

func (this *Logger) log(level Level, format string, args ...interface{}) {
	if level < this.threshold {
		return
	}

	e := &entry{level: level, msg: fmt.Sprintf(format, args...), when: time.Now()}

	select {
	case this.ch <- e:
	default:
		// Channel full: drop rather than block the caller. Losing a log
		// line under backpressure is preferable to stalling the encoder.
	}
}

func (this *Logger) Tracef(format string, args ...interface{})   { this.log(Trace, format, args...) }
func (this *Logger) Debugf(format string, args ...interface{})   { this.log(Debug, format, args...) }
func (this *Logger) Infof(format string, args ...interface{})    { this.log(Info, format, args...) }
func (this *Logger) Warningf(format string, args ...interface{}) { this.log(Warning, format, args...) }
func (this *Logger) Errorf(format string, args ...interface{})   { this.log(Error, format, args...) }
func (this *Logger) Fatalf(format string, args ...interface{})   { this.log(Fatal, format, args...) }

// Close stops accepting new entries and blocks until the drain goroutine
// has flushed everything already queued.
func (this *Logger) Close() {
	close(this.ch)
	<-this.done
}

// ParseLevel maps a CLI --log-level flag value to a Level. Unrecognized
// values fall back to Info.
func ParseLevel(s string) Level {
	switch s {
	case "trace":
		return Trace
	case "debug":
		return Debug
	case "info":
		return Info
	case "warning":
		return Warning
	case "error":
		return Error
	case "fatal":
		return Fatal
	default:
		return Info
	}
}
