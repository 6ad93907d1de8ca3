package vision

import (
	"strings"
	"testing"

	"gocv.io/x/gocv"
)

func TestStripDataURL(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"jpeg header", "data:image/jpeg;base64,AAAA", "AAAA"},
		{"png header", "data:image/png;base64,BBBB", "BBBB"},
		{"bare payload", "CCCC", "CCCC"},
		{"header only once", "data:image/jpeg;base64,data:image/jpeg;base64,DD", "data:image/jpeg;base64,DD"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripDataURL(tc.in); got != tc.want {
				t.Errorf("StripDataURL(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDecodeBase64BytesRejectsGarbage(t *testing.T) {
	if _, err := DecodeBase64Bytes(""); err == nil {
		t.Error("empty payload accepted")
	}
	if _, err := DecodeBase64Bytes("not base64 at all!"); err == nil {
		t.Error("non-base64 payload accepted")
	}
}

func TestEncodeDecodeBase64ImageRoundTrip(t *testing.T) {
	src := gocv.NewMatWithSize(32, 48, gocv.MatTypeCV8UC3)
	defer src.Close()

	encoded, err := EncodeBase64Image(src)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "data:image/jpeg;base64,") {
		t.Fatalf("encoded payload missing data-URL header: %.40s", encoded)
	}

	raw, img, err := DecodeBase64Image(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	defer img.Close()
	if len(raw) == 0 {
		t.Error("decode returned no payload bytes")
	}
	if img.Cols() != 48 || img.Rows() != 32 {
		t.Errorf("round trip dimensions %dx%d, want 48x32", img.Cols(), img.Rows())
	}
}

func TestEncodeBase64ImageRejectsEmpty(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := EncodeBase64Image(empty); err == nil {
		t.Error("empty pixel buffer encoded without error")
	}
}
