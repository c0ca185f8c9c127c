package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestThresholdFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Warning, &buf)
	l.Infof("should not appear")
	l.Warningf("should appear: %d", 42)
	l.Close()

	out := buf.String()

	if strings.Contains(out, "should not appear") {
		t.Fatalf("expected Info entry to be filtered, got: %s", out)
	}

	if !strings.Contains(out, "should appear: 42") {
		t.Fatalf("expected Warning entry in output, got: %s", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"trace":   Trace,
		"debug":   Debug,
		"info":    Info,
		"warning": Warning,
		"error":   Error,
		"fatal":   Fatal,
		"bogus":   Info,
	}

	for s, want := range cases {
		if got := ParseLevel(s); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestCloseDrainsQueuedEntries(t *testing.T) {
	var buf bytes.Buffer
	l := New(Trace, &buf)

	for i := 0; i < 50; i++ {
		l.Debugf("entry %d", i)
	}

	l.Close()

	if strings.Count(buf.String(), "entry") != 50 {
		t.Fatalf("expected 50 drained entries, got: %s", buf.String())
	}
}

func TestLevelString(t *testing.T) {
	if Trace.String() != "TRACE" || Fatal.String() != "FATAL" {
		t.Fatalf("unexpected Level.String() results")
	}
}
