package visit

import "strings"

const otherPrefix = string(PurposeOther) + ":"

// Decoded is the result of DecodePurpose.
type Decoded struct {
	Tags      []Purpose // enumeration order, no duplicates
	OtherText string
	Dropped   []string // tokens not in the purpose enumeration
}

// Has reports whether p is among the decoded tags.
func (d Decoded) Has(p Purpose) bool { return contains(d.Tags, p) }

// EncodePurpose serializes a set of purpose tags to the stored form.
// Tags are emitted in enumeration order joined by ", ". Other is written
// as "other:<text>" when otherText is not blank, otherwise as "other".
// Tags outside the enumeration are ignored.
func EncodePurpose(tags []Purpose, otherText string) string {
	selected := make(map[Purpose]bool, len(tags))
	for _, t := range tags {
		selected[t] = true
	}

	var parts []string
	for _, p := range Purposes {
		if p == PurposeOther || !selected[p] {
			continue
		}
		parts = append(parts, string(p))
	}

	if selected[PurposeOther] {
		if text := strings.TrimSpace(otherText); text != "" {
			parts = append(parts, otherPrefix+text)
		} else {
			parts = append(parts, string(PurposeOther))
		}
	}

	return strings.Join(parts, ", ")
}

// DecodePurpose parses a stored purpose string back into tags.
// Unknown tokens are skipped and reported in Dropped. When several
// "other:<text>" tokens appear the last one wins.
func DecodePurpose(s string) Decoded {
	var d Decoded
	seen := make(map[Purpose]bool)

	for _, tok := range PurposeTokens(s) {
		switch {
		case tok == string(PurposeOther):
			seen[PurposeOther] = true
		case strings.HasPrefix(tok, otherPrefix):
			seen[PurposeOther] = true
			d.OtherText = strings.TrimSpace(strings.TrimPrefix(tok, otherPrefix))
		case Purpose(tok).IsValid():
			seen[Purpose(tok)] = true
		default:
			d.Dropped = append(d.Dropped, tok)
		}
	}

	for _, p := range Purposes {
		if seen[p] {
			d.Tags = append(d.Tags, p)
		}
	}

	return d
}

// PurposeTokens splits a stored purpose string on commas, trimming each
// token and discarding empty ones. Tokens are returned as stored,
// including any "other:<text>" annotation.
func PurposeTokens(s string) []string {
	var out []string
	for _, tok := range strings.Split(s, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
