package codec

import "testing"

func TestEncodeDecodeFrameRoundTrip(t *testing.T) {
	payload := []byte("hello ivfdb")
	frame := EncodeFrame(KindRecord, payload)

	kind, got, err := DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if kind != KindRecord {
		t.Fatalf("kind = %d, want %d", kind, KindRecord)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload = %q, want %q", got, payload)
	}
}

func TestDecodeFrameRejectsBadMagic(t *testing.T) {
	frame := EncodeFrame(KindSchema, []byte("x"))
	frame[0] = 0x00
	if _, _, err := DecodeFrame(frame); err != ErrInvalidMagic {
		t.Fatalf("err = %v, want ErrInvalidMagic", err)
	}
}

func TestDecodeFrameDetectsCorruption(t *testing.T) {
	frame := EncodeFrame(KindIndexPartition, []byte("abcdef"))
	frame[len(frame)-1] ^= 0xFF
	if _, _, err := DecodeFrame(frame); err != ErrChecksumMismatch {
		t.Fatalf("err = %v, want ErrChecksumMismatch", err)
	}
}

func TestDecodeFrameRejectsShortFrame(t *testing.T) {
	if _, _, err := DecodeFrame([]byte{MagicByte, KindRecord}); err != ErrIncompleteFrame {
		t.Fatalf("err = %v, want ErrIncompleteFrame", err)
	}
}

func TestGoJSONRegisteredAsDefault(t *testing.T) {
	if Default.Name() != "gojson" {
		t.Fatalf("Default codec = %q, want gojson", Default.Name())
	}

	type payload struct {
		A int    `json:"a"`
		B string `json:"b"`
	}
	want := payload{A: 7, B: "x"}
	encoded, err := Default.Marshal(want)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got payload
	if err := Default.Unmarshal(encoded, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}
