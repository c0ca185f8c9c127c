package bitio

import "testing"

func TestWriteReadRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0x2A, 8)
	w.WriteBits(0x1, 1)
	w.WriteBits(0x3FFFFFFF, 30)
	w.WriteBits(0xFFFFFFFFFFFFFFFF, 64)
	buf := w.Flush()

	r := NewReader(buf)

	if v, err := r.ReadBits(8); err != nil || v != 0x2A {
		t.Fatalf("expected 0x2A, got %x (err=%v)", v, err)
	}

	if v, err := r.ReadBits(1); err != nil || v != 1 {
		t.Fatalf("expected 1, got %d (err=%v)", v, err)
	}

	if v, err := r.ReadBits(30); err != nil || v != 0x3FFFFFFF {
		t.Fatalf("expected 0x3FFFFFFF, got %x (err=%v)", v, err)
	}

	if v, err := r.ReadBits(64); err != nil || v != 0xFFFFFFFFFFFFFFFF {
		t.Fatalf("expected all-ones, got %x (err=%v)", v, err)
	}
}

func TestFlushPadsFinalByte(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0x5, 3) // 101
	buf := w.Flush()

	if len(buf) != 1 {
		t.Fatalf("expected 1 byte, got %d", len(buf))
	}

	if buf[0] != 0xA0 { // 101 00000
		t.Fatalf("expected 0xA0, got %x", buf[0])
	}
}

func TestReadUnderflow(t *testing.T) {
	w := NewWriter()
	w.WriteBits(0x1, 4)
	buf := w.Flush()

	r := NewReader(buf)

	if _, err := r.ReadBits(4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := r.ReadBits(8); err == nil {
		t.Fatalf("expected underflow error")
	}
}

func TestBitExactSequence(t *testing.T) {
	w := NewWriter()
	values := []struct {
		v uint64
		n uint
	}{
		{0, 1}, {1, 1}, {0xFF, 8}, {0x1234, 16}, {7, 3}, {0, 5},
	}

	for _, tc := range values {
		w.WriteBits(tc.v, tc.n)
	}

	buf := w.Flush()
	r := NewReader(buf)

	for _, tc := range values {
		got, err := r.ReadBits(tc.n)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got != tc.v {
			t.Fatalf("expected %d, got %d", tc.v, got)
		}
	}
}
