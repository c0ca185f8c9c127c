package transform

import (
	"reflect"
	"testing"
)

func TestDiffRoundTrip(t *testing.T) {
	cases := [][]uint64{
		{},
		{5},
		{1, 2, 3, 4, 5},
		{10, 9, 8, 100, 0, 0, 5},
	}

	for _, in := range cases {
		d := Diff(in)
		out := InverseDiff(d)

		if !reflect.DeepEqual(in, out) && !(len(in) == 0 && len(out) == 0) {
			t.Fatalf("diff round trip: got %v, want %v", out, in)
		}
	}
}

func TestDiffOfMonotoneIsConstant(t *testing.T) {
	in := make([]uint64, 255)

	for i := range in {
		in[i] = uint64(i + 1)
	}

	d := Diff(in)

	if d[0] != 1 {
		t.Fatalf("expected first diff to be 1 (s[-1]=0), got %d", d[0])
	}

	for i := 1; i < len(d); i++ {
		if d[i] != 1 {
			t.Fatalf("expected constant diff of 1, got %d at index %d", d[i], i)
		}
	}
}
