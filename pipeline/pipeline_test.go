package pipeline

import (
	"reflect"
	"testing"

	"github.com/cabacx/cabacx/cerrors"
	"github.com/cabacx/cabacx/config"
	"github.com/cabacx/cabacx/entropy"
	"github.com/cabacx/cabacx/transform"
)

func noTransformBypassConfig(bits uint) *config.Configuration {
	return &config.Configuration{
		WordSize:                 1,
		SequenceTransformationId: transform.NoTransformId,
		SubStreamConfigs: []config.SubStreamConfig{
			{
				BinarizationId:         entropy.BI,
				BinarizationParameters: []uint64{uint64(bits)},
				ContextSelectionId:     entropy.ContextBypass,
			},
		},
	}
}

func TestEncodeDecodeEmptyInput(t *testing.T) {
	cfg := noTransformBypassConfig(8)
	framed, err := Encode(nil, cfg)

	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := Decode(framed, cfg)

	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(out) != 0 {
		t.Fatalf("expected empty output, got %v", out)
	}
}

func TestEncodeDecodeSingleByte(t *testing.T) {
	cfg := noTransformBypassConfig(8)
	in := []uint64{0x2A}
	framed, err := Encode(in, cfg)

	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := Decode(framed, cfg)

	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Fatalf("got %v, want %v", out, in)
	}
}

func rleConfig(guard uint64) *config.Configuration {
	return &config.Configuration{
		WordSize:                        1,
		SequenceTransformationId:        transform.RleId,
		SequenceTransformationParameter: guard,
		SubStreamConfigs: []config.SubStreamConfig{
			{BinarizationId: entropy.BI, BinarizationParameters: []uint64{8}, ContextSelectionId: entropy.ContextBypass},
			{BinarizationId: entropy.BI, BinarizationParameters: []uint64{8}, ContextSelectionId: entropy.ContextBypass},
		},
	}
}

func TestEncodeDecodeRleRoundTrip(t *testing.T) {
	in := []uint64{5, 5, 5, 5, 5, 5, 5, 5}
	cfg := rleConfig(200)
	framed, err := Encode(in, cfg)

	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := Decode(framed, cfg)

	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Fatalf("got %v, want %v", out, in)
	}
}

func TestRleShorterThanNoTransformForRepeatedByte(t *testing.T) {
	in := []uint64{5, 5, 5, 5, 5, 5, 5, 5}
	rleFramed, err := Encode(in, rleConfig(200))

	if err != nil {
		t.Fatalf("rle encode: %v", err)
	}

	plainFramed, err := Encode(in, noTransformBypassConfig(8))

	if err != nil {
		t.Fatalf("plain encode: %v", err)
	}

	if len(rleFramed) >= len(plainFramed) {
		t.Fatalf("expected rle framing (%d bytes) to beat no_transform (%d bytes)", len(rleFramed), len(plainFramed))
	}
}

func equalityLutConfig() *config.Configuration {
	return &config.Configuration{
		WordSize:                 1,
		SequenceTransformationId: transform.EqualityId,
		SubStreamConfigs: []config.SubStreamConfig{
			{BinarizationId: entropy.BI, BinarizationParameters: []uint64{1}, ContextSelectionId: entropy.ContextOrder1},
			{
				LutTransformationEnabled: true,
				LutOrder:                 0,
				LutBits:                  4,
				BinarizationId:           entropy.BI,
				BinarizationParameters:   []uint64{1},
				ContextSelectionId:       entropy.ContextBypass,
			},
		},
	}
}

func TestEncodeDecodeEqualityWithLut(t *testing.T) {
	in := make([]uint64, 1024)

	for i := range in {
		if (i/2)%2 == 0 {
			in[i] = 7
		} else {
			in[i] = 8
		}
	}

	cfg := equalityLutConfig()
	framed, err := Encode(in, cfg)

	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := Decode(framed, cfg)

	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Fatalf("got %v, want %v", out, in)
	}
}

func matchConfig(windowSize uint64) *config.Configuration {
	return &config.Configuration{
		WordSize:                        1,
		SequenceTransformationId:        transform.MatchId,
		SequenceTransformationParameter: windowSize,
		SubStreamConfigs: []config.SubStreamConfig{
			{BinarizationId: entropy.BI, BinarizationParameters: []uint64{8}, ContextSelectionId: entropy.ContextBypass},
			{BinarizationId: entropy.BI, BinarizationParameters: []uint64{8}, ContextSelectionId: entropy.ContextBypass},
			{BinarizationId: entropy.BI, BinarizationParameters: []uint64{8}, ContextSelectionId: entropy.ContextBypass},
		},
	}
}

func TestEncodeDecodeMatchRoundTrip(t *testing.T) {
	in := []uint64{1, 2, 3, 4, 5, 1, 2, 3, 4, 5, 6, 7, 1, 2, 3, 4, 5}
	cfg := matchConfig(16)
	framed, err := Encode(in, cfg)

	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := Decode(framed, cfg)

	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Fatalf("got %v, want %v", out, in)
	}
}

func TestEncodeDecodeDiffMonotone(t *testing.T) {
	in := make([]uint64, 255)

	for i := range in {
		in[i] = uint64(i + 1)
	}

	cfg := &config.Configuration{
		WordSize:                 1,
		SequenceTransformationId: transform.NoTransformId,
		SubStreamConfigs: []config.SubStreamConfig{
			{
				DiffCodingEnabled:      true,
				BinarizationId:         entropy.STEG,
				BinarizationParameters: []uint64{4},
				ContextSelectionId:     entropy.ContextOrder0,
			},
		},
	}

	framed, err := Encode(in, cfg)

	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, err := Decode(framed, cfg)

	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !reflect.DeepEqual(in, out) {
		t.Fatalf("got %v, want %v", out, in)
	}

	biFramed, err := Encode(in, noTransformBypassConfig(8))

	if err != nil {
		t.Fatalf("bi encode: %v", err)
	}

	if len(framed) >= len(biFramed) {
		t.Fatalf("expected diff+STEG (%d bytes) to beat BI(8)+bypass (%d bytes)", len(framed), len(biFramed))
	}
}

func TestBytesToSymbolsRejectsMisalignedInput(t *testing.T) {
	_, err := BytesToSymbols([]byte{1, 2, 3}, 2)

	if err == nil {
		t.Fatalf("expected InputMisaligned error")
	}
}

func TestDecodeTruncatedBytestreamReturnsTruncatedError(t *testing.T) {
	cfg := noTransformBypassConfig(8)
	in := []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	framed, err := Encode(in, cfg)

	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	truncated := framed[:len(framed)-2]
	_, err = Decode(truncated, cfg)

	if err == nil {
		t.Fatalf("expected an error decoding a truncated bytestream, got a result")
	}

	if cerrors.KindOf(err) != cerrors.Truncated {
		t.Fatalf("expected Truncated kind, got %s", cerrors.KindOf(err))
	}
}

func TestDecodeMainStreamRejectsBogusDeclaredCount(t *testing.T) {
	// An all-0xFF payload decodes some large bogus 32-bit symbol count out
	// of its header; it must be rejected before that count drives a
	// multi-gigabyte allocation.
	payload := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	sc := config.SubStreamConfig{BinarizationId: entropy.BI, BinarizationParameters: []uint64{8}, ContextSelectionId: entropy.ContextBypass}

	_, err := decodeMainStream(payload, sc)

	if err == nil {
		t.Fatalf("expected an error for a bogus declared symbol count")
	}

	if cerrors.KindOf(err) != cerrors.Truncated {
		t.Fatalf("expected Truncated kind, got %s", cerrors.KindOf(err))
	}
}

func TestDecodeMainStreamRejectsEmptyPayloadRatherThanSilentlySucceeding(t *testing.T) {
	sc := config.SubStreamConfig{BinarizationId: entropy.BI, BinarizationParameters: []uint64{8}, ContextSelectionId: entropy.ContextBypass}

	out, err := decodeMainStream(nil, sc)

	if err == nil {
		t.Fatalf("expected an error decoding an empty payload, got %v", out)
	}

	if cerrors.KindOf(err) != cerrors.Truncated {
		t.Fatalf("expected Truncated kind, got %s", cerrors.KindOf(err))
	}
}

func TestBytesSymbolsRoundTrip(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	for _, ws := range []uint{1, 2, 4, 8} {
		symbols, err := BytesToSymbols(buf, ws)

		if err != nil {
			t.Fatalf("wordSize=%d: %v", ws, err)
		}

		back := SymbolsToBytes(symbols, ws)

		if !reflect.DeepEqual(buf, back) {
			t.Fatalf("wordSize=%d: got %v, want %v", ws, back, buf)
		}
	}
}
