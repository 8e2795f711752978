package execctx

import "testing"

func TestPythonic(t *testing.T) {
	cases := map[string]string{
		"GoToStore": "go_to_store",
		"Echo":      "echo",
		"ID":        "i_d",
	}
	for in, want := range cases {
		if got := Pythonic(in); got != want {
			t.Errorf("Pythonic(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestUpperCamelAndLowerCamel(t *testing.T) {
	if got := UpperCamel("go_to_store"); got != "GoToStore" {
		t.Errorf("UpperCamel(go_to_store) = %q, want GoToStore", got)
	}
	if got := LowerCamel("go_to_store"); got != "goToStore" {
		t.Errorf("LowerCamel(go_to_store) = %q, want goToStore", got)
	}
}

func TestBuildAliasMapResolvesAllThreeSpellings(t *testing.T) {
	aliases := BuildAliasMap([]string{"GoToStore"})

	for _, spelling := range []string{"GoToStore", "goToStore", "go_to_store"} {
		canonical, ok := aliases.Resolve(spelling)
		if !ok || canonical != "GoToStore" {
			t.Errorf("Resolve(%q) = (%q, %v), want (GoToStore, true)", spelling, canonical, ok)
		}
	}

	if _, ok := aliases.Resolve("NotARealMethod"); ok {
		t.Error("Resolve(NotARealMethod) = true, want false")
	}
}
