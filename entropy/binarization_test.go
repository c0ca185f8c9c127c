package entropy

import "testing"

// collectBits returns a bitEmitter that records bins into a growable slice
// indexed by binPos, plus a bitReader that plays them back.
func collectBits() (bitEmitter, *[]byte) {
	bins := make([]byte, 0, 16)
	emit := func(bit byte, pos int) {
		for len(bins) <= pos {
			bins = append(bins, 0)
		}
		bins[pos] = bit
	}
	return emit, &bins
}

func readerOf(bins []byte) bitReader {
	return func(pos int) byte {
		if pos >= len(bins) {
			return 0
		}
		return bins[pos]
	}
}

func TestBIRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 5, 255, 511} {
		emit, bins := collectBits()

		if err := EncodeBI(emit, v, 9); err != nil {
			t.Fatalf("encode %d: %v", v, err)
		}

		got := DecodeBI(readerOf(*bins), 9)

		if got != v {
			t.Fatalf("BI(%d): got %d", v, got)
		}
	}
}

func TestBIOutOfRange(t *testing.T) {
	emit, _ := collectBits()

	if err := EncodeBI(emit, 256, 8); err != ErrBinarizationOutOfRange {
		t.Fatalf("expected ErrBinarizationOutOfRange, got %v", err)
	}
}

func TestTURoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 4, 8} {
		emit, bins := collectBits()

		if err := EncodeTU(emit, v, 8); err != nil {
			t.Fatalf("encode %d: %v", v, err)
		}

		got := DecodeTU(readerOf(*bins), 8)

		if got != v {
			t.Fatalf("TU(%d): got %d", v, got)
		}
	}
}

func TestEGRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 2, 7, 255, 100000} {
		emit, bins := collectBits()

		if err := EncodeEG(emit, v); err != nil {
			t.Fatalf("encode %d: %v", v, err)
		}

		got := DecodeEG(readerOf(*bins))

		if got != v {
			t.Fatalf("EG(%d): got %d", v, got)
		}
	}
}

func TestSEGRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 2, -2, 1000, -1000} {
		emit, bins := collectBits()

		if err := EncodeSEG(emit, v); err != nil {
			t.Fatalf("encode %d: %v", v, err)
		}

		got := DecodeSEG(readerOf(*bins))

		if got != v {
			t.Fatalf("SEG(%d): got %d", v, got)
		}
	}
}

func TestTEGRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 3, 4, 5, 100, 99999} {
		emit, bins := collectBits()

		if err := EncodeTEG(emit, v, 4); err != nil {
			t.Fatalf("encode %d: %v", v, err)
		}

		got := DecodeTEG(readerOf(*bins), 4)

		if got != v {
			t.Fatalf("TEG(%d): got %d", v, got)
		}
	}
}

func TestSTEGRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 3, -3, 4, -4, 12345, -12345} {
		emit, bins := collectBits()

		if err := EncodeSTEG(emit, v, 4); err != nil {
			t.Fatalf("encode %d: %v", v, err)
		}

		got := DecodeSTEG(readerOf(*bins), 4)

		if got != v {
			t.Fatalf("STEG(%d): got %d", v, got)
		}
	}
}

func TestSbCheckRejectsOversizedBI(t *testing.T) {
	if sbCheck(BI, 1<<20, 8) {
		t.Fatalf("expected sbCheck to reject 1<<20 with 8-bit BI")
	}

	if !sbCheck(BI, 255, 8) {
		t.Fatalf("expected sbCheck to accept 255 with 8-bit BI")
	}
}

func TestSbCheckRejectsOversizedTU(t *testing.T) {
	if sbCheck(TU, 9, 8) {
		t.Fatalf("expected sbCheck to reject v=9 against TU cMax=8")
	}

	if !sbCheck(TU, 8, 8) {
		t.Fatalf("expected sbCheck to accept v=8 against TU cMax=8")
	}
}

func TestEncodeDecodeValueDispatch(t *testing.T) {
	cases := []struct {
		id    BinarizationId
		v     int64
		param uint
	}{
		{BI, 42, 8},
		{TU, 3, 8},
		{EG, 12345, 0},
		{SEG, -777, 0},
		{TEG, 50, 4},
		{STEG, -50, 4},
	}

	for _, c := range cases {
		emit, bins := collectBits()

		if err := EncodeValue(c.id, emit, c.v, c.param); err != nil {
			t.Fatalf("%s encode %d: %v", c.id, c.v, err)
		}

		got, err := DecodeValue(c.id, readerOf(*bins), c.param)

		if err != nil {
			t.Fatalf("%s decode: %v", c.id, err)
		}

		if got != c.v {
			t.Fatalf("%s: got %d want %d", c.id, got, c.v)
		}
	}
}
