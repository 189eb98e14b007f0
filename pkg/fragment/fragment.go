// Package fragment encodes and decodes URL hash fragments of the form
// #name?key=value&flag. A fragment names a destination plus its parameters
// and doubles as the serialization unit for history-entry state.
//
// The codec only handles string-level syntax. Mapping a fragment name to an
// application destination is the caller's job.
package fragment

import (
	"errors"
	"net/url"
	"sort"
	"strings"
)

// ErrUnparseable is returned when a fragment's name portion is empty or
// contains characters that should have been percent-encoded.
var ErrUnparseable = errors.New("fragment: unparseable")

// Params holds decoded fragment parameters. A nil value means the parameter
// was present as a bare key with no "=" (a flag).
type Params map[string]*string

// String returns a *string for use as a Params value.
func String(s string) *string {
	return &s
}

// Encode builds a fragment from a destination name and its parameters.
//
// The result is "#" + the percent-encoded name and, when params is
// non-empty, "?" followed by the parameters sorted by key and joined with
// "&". A parameter with a nil value is emitted as a bare key. Output is
// deterministic regardless of map iteration order.
func Encode(name string, params Params) string {
	var b strings.Builder
	b.WriteByte('#')
	b.WriteString(escape(name))

	if len(params) == 0 {
		return b.String()
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('?')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(escape(k))
		if v := params[k]; v != nil {
			b.WriteByte('=')
			b.WriteString(escape(*v))
		}
	}
	return b.String()
}

// DecodeName extracts the destination name from a fragment.
//
// A leading "#" is stripped and the portion before the last "?" is
// percent-decoded. Returns ErrUnparseable when that portion is empty or
// still contains a stray "#" or "?" after decoding boundaries were applied.
func DecodeName(frag string) (string, error) {
	s := strings.TrimPrefix(frag, "#")
	if i := strings.LastIndex(s, "?"); i >= 0 {
		s = s[:i]
	}
	if s == "" || strings.ContainsAny(s, "#?") {
		return "", ErrUnparseable
	}
	name, err := unescape(s)
	if err != nil {
		return "", ErrUnparseable
	}
	return name, nil
}

// DecodeParams extracts the parameters from a fragment.
//
// The portion after the last "?" is split on "&"; empty segments are
// dropped. Each segment splits on the first "=" only; a segment without "="
// decodes to a nil value. Returns an empty map when the fragment has no
// query portion. Segments that fail percent-decoding are skipped.
func DecodeParams(frag string) Params {
	params := make(Params)

	i := strings.LastIndex(frag, "?")
	if i < 0 {
		return params
	}

	for _, seg := range strings.Split(frag[i+1:], "&") {
		if seg == "" {
			continue
		}
		rawKey, rawVal, hasVal := strings.Cut(seg, "=")
		key, err := unescape(rawKey)
		if err != nil {
			continue
		}
		if !hasVal {
			params[key] = nil
			continue
		}
		val, err := unescape(rawVal)
		if err != nil {
			continue
		}
		params[key] = &val
	}
	return params
}

// escape percent-encodes a fragment component. The RFC 3986 unreserved set
// passes through; everything else becomes %XX. url.QueryEscape is not
// usable here: it emits "+" for spaces, which does not round-trip through
// a browser's decodeURIComponent.
func escape(s string) string {
	const upperhex = "0123456789ABCDEF"

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0xf])
	}
	return b.String()
}

// unescape reverses escape. It accepts any valid %XX escapes and leaves
// "+" alone, matching decodeURIComponent semantics.
func unescape(s string) (string, error) {
	return url.PathUnescape(s)
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}
