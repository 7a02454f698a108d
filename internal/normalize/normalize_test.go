package normalize

import "testing"

func TestKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Coca-Cola 1L", "coca cola 1l"},
		{"  FEUILLES   de Manioc ", "feuilles de manioc"},
		{"Crème fraîche", "creme fraiche"},
		{"maïs", "mais"},
		{"PRIMUS 72cl!!", "primus 72cl"},
		{"###", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := Key(c.in); got != c.want {
			t.Errorf("Key(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestKeyIdempotent(t *testing.T) {
	inputs := []string{
		"Coca-Cola 1L", "Crème fraîche", "  S prite  ", "###", "Huile végétale 5L",
	}
	for _, in := range inputs {
		once := Key(in)
		if twice := Key(once); twice != once {
			t.Errorf("Key not idempotent for %q: %q != %q", in, twice, once)
		}
	}
}

func TestCompactKey(t *testing.T) {
	if got := CompactKey("Coca-Cola 1L"); got != "cocacola1l" {
		t.Errorf("CompactKey = %q, want %q", got, "cocacola1l")
	}
}
