package codec

import (
	"bytes"
	"strings"
	"testing"
)

func TestPackUnpackRoundTrip(t *testing.T) {
	cases := []List{
		{},
		{"hello"},
		{"hello", "world"},
		{List{"a", "b"}},
		{"import_0", "OK"},
		{"id", List{"nested", List{"deep", "list"}}, "tail"},
	}

	for i, xs := range cases {
		packed, err := Pack(xs)
		if err != nil {
			t.Fatalf("case %d: Pack error: %v", i, err)
		}
		got, err := Unpack(packed)
		if err != nil {
			t.Fatalf("case %d: Unpack error: %v", i, err)
		}
		if !listsEqual(got, xs) {
			t.Errorf("case %d: round trip mismatch: got %#v, want %#v", i, got, xs)
		}
	}
}

func TestPackHeaderLengthMatchesByteCount(t *testing.T) {
	packed, err := Pack(List{"hello"})
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	// "[000001:000005:hello:]"
	want := "[000001:000005:hello:]"
	if packed != want {
		t.Fatalf("Pack() = %q, want %q", packed, want)
	}
}

func TestCodecCountsUTF8Bytes(t *testing.T) {
	// "héllo" has 5 runes but 6 UTF-8 bytes ('é' is 2 bytes).
	s := "héllo"
	if len(s) != 6 {
		t.Fatalf("test fixture assumption broken: len(%q) = %d", s, len(s))
	}

	packed, err := Pack(List{s})
	if err != nil {
		t.Fatalf("Pack error: %v", err)
	}
	if !strings.Contains(packed, "000006:"+s+":") {
		t.Fatalf("Pack() = %q, want item length header to count UTF-8 bytes (6), not runes (5)", packed)
	}

	got, err := Unpack(packed)
	if err != nil {
		t.Fatalf("Unpack error: %v", err)
	}
	if !listsEqual(got, List{s}) {
		t.Fatalf("round trip mismatch for multibyte payload: got %#v", got)
	}
}

func TestUnpackMalformedFraming(t *testing.T) {
	cases := map[string]string{
		"missing opening bracket": "000001:000005:hello:]",
		"missing closing bracket": "[000001:000005:hello:",
		"non-digit header":        "[00000a:000005:hello:]",
		"length overrun":          "[000001:000099:hello:]",
		"missing item separator":  "[000001:000005hello:]",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Unpack(input); err == nil {
				t.Errorf("Unpack(%q) succeeded, want decode error", input)
			}
		})
	}
}

func TestReadWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("bye")
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame error: %v", err)
	}
	if buf.String() != "000003:bye" {
		t.Fatalf("WriteFrame() = %q, want %q", buf.String(), "000003:bye")
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame error: %v", err)
	}
	if string(got) != "bye" {
		t.Fatalf("ReadFrame() = %q, want %q", got, "bye")
	}
}

func listsEqual(a, b List) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		switch av := a[i].(type) {
		case string:
			bv, ok := b[i].(string)
			if !ok || av != bv {
				return false
			}
		case List:
			bv, ok := b[i].(List)
			if !ok || !listsEqual(av, bv) {
				return false
			}
		default:
			return false
		}
	}
	return true
}
