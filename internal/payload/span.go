package payload

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/illarion/notelock/internal/crypto"
)

const (
	prefixObsolete     = "%%🔐 "
	prefixAlpha        = "%%🔐α "
	prefixAlphaVisible = "🔐α "
	prefixBeta         = "%%🔐β "
	prefixBetaVisible  = "🔐β "

	suffixHidden  = " 🔐%%"
	suffixVisible = " 🔐"

	lockGlyph  = "🔐"
	hintMarker = "💡"
)

type family struct {
	prefix  string
	suffix  string
	version crypto.Version
	visible bool
}

// Checked in order: hidden forms first, since they wrap the visible glyphs.
var families = []family{
	{prefixAlpha, suffixHidden, crypto.VersionAlpha, false},
	{prefixBeta, suffixHidden, crypto.VersionBeta, false},
	{prefixObsolete, suffixHidden, crypto.VersionObsolete, false},
	{prefixAlphaVisible, suffixVisible, crypto.VersionAlpha, true},
	{prefixBetaVisible, suffixVisible, crypto.VersionBeta, true},
}

// Span is an inline encrypted fragment embedded in a document body
type Span struct {
	Version     crypto.Version
	Visible     bool
	Hint        string
	EncodedData string
}

// CheckHint rejects hints that would break marker parsing. A span never
// crosses a line break, so neither may its hint.
func CheckHint(hint string) error {
	if strings.Contains(hint, hintMarker) || strings.Contains(hint, lockGlyph) ||
		strings.ContainsAny(hint, "\r\n") {
		return ErrInvalidHint
	}
	return nil
}

// NewSpan builds a span in the current marker family
func NewSpan(hint, encodedData string, visible bool) (*Span, error) {
	if err := CheckHint(hint); err != nil {
		return nil, err
	}
	return &Span{
		Version:     crypto.Current,
		Visible:     visible,
		Hint:        hint,
		EncodedData: encodedData,
	}, nil
}

// ParseSpan parses a complete marker, prefix to suffix
func ParseSpan(text string) (*Span, error) {
	for _, f := range families {
		if len(text) < len(f.prefix)+len(f.suffix) {
			continue
		}
		if !strings.HasPrefix(text, f.prefix) || !strings.HasSuffix(text, f.suffix) {
			continue
		}
		content := text[len(f.prefix) : len(text)-len(f.suffix)]
		return parseContent(f, content)
	}
	return nil, fmt.Errorf("%w: unrecognized marker", ErrMalformed)
}

func parseContent(f family, content string) (*Span, error) {
	span := &Span{Version: f.version, Visible: f.visible}

	if strings.HasPrefix(content, hintMarker) {
		rest := content[len(hintMarker):]
		end := strings.Index(rest, hintMarker)
		if end < 0 {
			return nil, fmt.Errorf("%w: unterminated hint", ErrMalformed)
		}
		span.Hint = rest[:end]
		content = rest[end+len(hintMarker):]
	}

	if content == "" {
		return nil, fmt.Errorf("%w: empty data", ErrMalformed)
	}
	if _, err := base64.StdEncoding.DecodeString(content); err != nil {
		return nil, fmt.Errorf("%w: data is not base64", ErrMalformed)
	}
	span.EncodedData = content
	return span, nil
}

func (s *Span) family() family {
	for _, f := range families {
		if f.version == s.Version && f.visible == s.Visible {
			return f
		}
	}
	// the obsolete scheme only ever had a hidden marker
	return families[2]
}

// String renders the span marker
func (s *Span) String() string {
	f := s.family()

	var b strings.Builder
	b.WriteString(f.prefix)
	if s.Hint != "" {
		b.WriteString(hintMarker)
		b.WriteString(s.Hint)
		b.WriteString(hintMarker)
	}
	b.WriteString(s.EncodedData)
	b.WriteString(f.suffix)
	return b.String()
}

// Match is a span found inside a document body at [Start, End)
type Match struct {
	Start int
	End   int
	Span  *Span
}

// Scan returns every well-formed span in body, in order of appearance.
// A span never crosses a line break and spans never overlap.
func Scan(body string) []Match {
	var matches []Match

	pos, lastEnd := 0, 0
	for pos < len(body) {
		idx := strings.Index(body[pos:], lockGlyph)
		if idx < 0 {
			break
		}
		idx += pos

		m, ok := Match{}, false
		if idx-2 >= lastEnd && body[idx-2:idx] == "%%" {
			m, ok = matchAt(body, idx-2, false)
		}
		if !ok {
			m, ok = matchAt(body, idx, true)
		}
		if ok {
			matches = append(matches, m)
			pos, lastEnd = m.End, m.End
			continue
		}
		pos = idx + len(lockGlyph)
	}
	return matches
}

// matchAt tries the hidden or the visible families at start
func matchAt(body string, start int, visible bool) (Match, bool) {
	for _, f := range families {
		if f.visible != visible || !strings.HasPrefix(body[start:], f.prefix) {
			continue
		}
		from := start + len(f.prefix)
		k := strings.Index(body[from:], f.suffix)
		if k < 0 {
			return Match{}, false
		}
		end := from + k + len(f.suffix)
		if strings.ContainsAny(body[start:end], "\r\n") {
			return Match{}, false
		}
		span, err := ParseSpan(body[start:end])
		if err != nil {
			return Match{}, false
		}
		return Match{Start: start, End: end, Span: span}, true
	}
	return Match{}, false
}
