package codec

import "testing"

// FuzzUnpack checks that Unpack never panics on arbitrary bytes, and
// that whatever it does return survives a Pack/Unpack round trip.
//
// Run with: go test -fuzz=FuzzUnpack -fuzztime=10000x ./internal/codec/
func FuzzUnpack(f *testing.F) {
	valid, err := Pack(List{"import_0", "OK"})
	if err != nil {
		f.Fatalf("seed Pack: %v", err)
	}
	f.Add(valid)
	f.Add("[000000:]")
	f.Add("[000001:000005:hello:]")
	f.Add("")
	f.Add("[")
	f.Add("[999999:000005:hello:]")
	f.Add("[000001:999999:hello:]")
	f.Add("[000001:00000a:hello:]")

	f.Fuzz(func(t *testing.T, data string) {
		list, err := Unpack(data)
		if err != nil {
			return
		}
		packed, err := Pack(list)
		if err != nil {
			t.Fatalf("Pack(Unpack(%q)) failed: %v", data, err)
		}
		if _, err := Unpack(packed); err != nil {
			t.Fatalf("re-Unpack of Pack(Unpack(%q))=%q failed: %v", data, packed, err)
		}
	})
}
