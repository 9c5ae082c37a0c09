package streak

import (
	"encoding/base64"
	"strings"
)

// DecodeLegacyKey extracts the numeric legacy id from an opaque v2 composite
// key. Composite keys are base64url encodings of
// "<Type>,~~<namespace>~~<numericId>", with or without padding. It returns
// false for keys that are not composite.
func DecodeLegacyKey(key string) (string, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(key, "="))
	if err != nil {
		return "", false
	}
	payload := string(raw)

	typ, rest, ok := strings.Cut(payload, ",")
	if !ok || typ == "" || !strings.HasPrefix(rest, "~~") {
		return "", false
	}
	i := strings.LastIndex(rest, "~~")
	if i <= 0 {
		return "", false
	}
	id := rest[i+2:]
	if id == "" || strings.Trim(id, "0123456789") != "" {
		return "", false
	}
	return id, true
}
