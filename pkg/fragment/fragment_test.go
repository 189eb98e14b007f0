package fragment

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeBasic(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"root", nil, "#root"},
		{"root", Params{}, "#root"},
		{"profile", Params{"id": String("42")}, "#profile?id=42"},
		{"screen", Params{"flag": nil}, "#screen?flag"},
		{"search", Params{"q": String("go routines")}, "#search?q=go%20routines"},
	}

	for _, tt := range tests {
		if got := Encode(tt.name, tt.params); got != tt.want {
			t.Errorf("Encode(%q, %v) = %q, want %q", tt.name, tt.params, got, tt.want)
		}
	}
}

func TestEncodeSortsKeys(t *testing.T) {
	// Two maps with identical content must encode identically regardless
	// of insertion order.
	a := Params{}
	a["zebra"] = String("1")
	a["alpha"] = String("2")
	a["mid"] = nil

	b := Params{}
	b["mid"] = nil
	b["alpha"] = String("2")
	b["zebra"] = String("1")

	ea, eb := Encode("s", a), Encode("s", b)
	if ea != eb {
		t.Fatalf("encode not deterministic: %q vs %q", ea, eb)
	}
	if want := "#s?alpha=2&mid&zebra=1"; ea != want {
		t.Errorf("Encode = %q, want %q", ea, want)
	}
}

func TestDecodeName(t *testing.T) {
	tests := []struct {
		frag    string
		want    string
		wantErr bool
	}{
		{"#profile?id=42", "profile", false},
		{"#root", "root", false},
		{"root", "root", false},
		{"#with%20space?x=1", "with space", false},
		{"#a?b?c=1", "", true}, // stray '?' survives the last-'?' split
		{"#", "", true},
		{"#?id=1", "", true},
		{"##double", "", true},
	}

	for _, tt := range tests {
		got, err := DecodeName(tt.frag)
		if tt.wantErr {
			if err == nil {
				t.Errorf("DecodeName(%q) = %q, want error", tt.frag, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("DecodeName(%q) error: %v", tt.frag, err)
			continue
		}
		if got != tt.want {
			t.Errorf("DecodeName(%q) = %q, want %q", tt.frag, got, tt.want)
		}
	}
}

func TestDecodeParams(t *testing.T) {
	tests := []struct {
		frag string
		want Params
	}{
		{"#profile?id=42", Params{"id": String("42")}},
		{"#root", Params{}},
		{"#screen?flag", Params{"flag": nil}},
		{"#s?a=1&b=2&c", Params{"a": String("1"), "b": String("2"), "c": nil}},
		{"#s?a=1&&b=2", Params{"a": String("1"), "b": String("2")}},
		{"#s?eq=a%3Db", Params{"eq": String("a=b")}},
		{"#s?k=v=w", Params{"k": String("v=w")}}, // split on first '=' only
	}

	for _, tt := range tests {
		got := DecodeParams(tt.frag)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("DecodeParams(%q) mismatch (-want +got):\n%s", tt.frag, diff)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		params Params
	}{
		{"root", nil},
		{"profile", Params{"id": String("42")}},
		{"screen", Params{"flag": nil}},
		{"mixed", Params{"a": String(""), "b": nil, "zed": String("x y&z=w")}},
		{"with space", Params{"key with space": String("value/with/slash")}},
		{"unicode", Params{"läge": String("höger")}},
	}

	for _, c := range cases {
		frag := Encode(c.name, c.params)

		name, err := DecodeName(frag)
		if err != nil {
			t.Errorf("DecodeName(Encode(%q)) error: %v", c.name, err)
			continue
		}
		if name != c.name {
			t.Errorf("round trip name: got %q, want %q", name, c.name)
		}

		want := c.params
		if want == nil {
			want = Params{}
		}
		if diff := cmp.Diff(want, DecodeParams(frag)); diff != "" {
			t.Errorf("round trip params for %q (-want +got):\n%s", frag, diff)
		}
	}
}

func TestNilValueRoundTrip(t *testing.T) {
	frag := Encode("screen", Params{"flag": nil})
	if frag != "#screen?flag" {
		t.Fatalf("Encode = %q, want %q", frag, "#screen?flag")
	}
	params := DecodeParams(frag)
	v, ok := params["flag"]
	if !ok {
		t.Fatal("flag missing after decode")
	}
	if v != nil {
		t.Errorf("flag = %q, want nil value", *v)
	}
}
