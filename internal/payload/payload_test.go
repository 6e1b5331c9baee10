package payload

import (
	"strings"
	"testing"

	"github.com/illarion/notelock/internal/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleData = "QUJDREVGR0hJSktMTU5PUA=="

func TestParseDocument(t *testing.T) {
	text := `{
  "version": "2.0",
  "hint": "dog's name",
  "encodedData": "` + sampleData + `"
}`
	doc, err := ParseDocument(text)
	require.NoError(t, err)
	assert.Equal(t, "2.0", doc.Version)
	assert.Equal(t, "dog's name", doc.Hint)
	assert.Equal(t, sampleData, doc.EncodedData)

	v, err := doc.FormatVersion()
	require.NoError(t, err)
	assert.Equal(t, crypto.VersionBeta, v)
}

func TestParseDocument_Legacy(t *testing.T) {
	doc, err := ParseDocument(`{"version":"1.0","hint":"","encodedData":"` + sampleData + `"}`)
	require.NoError(t, err)

	v, err := doc.FormatVersion()
	require.NoError(t, err)
	assert.Equal(t, crypto.VersionAlpha, v)
}

func TestParseDocument_Blank(t *testing.T) {
	for _, in := range []string{"", "  \n"} {
		doc, err := ParseDocument(in)
		require.NoError(t, err)
		assert.True(t, doc.IsEmpty())
	}
}

func TestParseDocument_Malformed(t *testing.T) {
	cases := map[string]string{
		"plain text":      "just some markdown",
		"missing version": `{"hint":"x","encodedData":"` + sampleData + `"}`,
		"trailing data":   `{"version":"2.0","encodedData":"a"} {}`,
		"wrong type":      `{"version":2,"encodedData":"a"}`,
		"missing data":    `{"version":"2.0","hint":"x"}`,
		"unknown no data": `{"version":"9.0"}`,
		"data not base64": `{"version":"2.0","encodedData":"not base64 !!!"}`,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument(in)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestDocument_UnknownVersion(t *testing.T) {
	doc, err := ParseDocument(`{"version":"3.0","encodedData":"` + sampleData + `"}`)
	require.NoError(t, err, "unknown tags are not a structural failure")

	_, err = doc.FormatVersion()
	assert.ErrorIs(t, err, crypto.ErrUnsupportedVersion)
}

func TestDocument_EncodeRoundTrip(t *testing.T) {
	doc := NewDocument("hint", sampleData)
	assert.Equal(t, "2.0", doc.Version)

	text, err := doc.Encode()
	require.NoError(t, err)
	assert.Contains(t, text, "\n  \"encodedData\": ")

	back, err := ParseDocument(text)
	require.NoError(t, err)
	assert.Equal(t, doc, back)
}

func TestParseSpan_Families(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		version crypto.Version
		visible bool
		hint    string
	}{
		{"obsolete", "%%🔐 " + sampleData + " 🔐%%", crypto.VersionObsolete, false, ""},
		{"alpha hidden", "%%🔐α " + sampleData + " 🔐%%", crypto.VersionAlpha, false, ""},
		{"alpha visible", "🔐α " + sampleData + " 🔐", crypto.VersionAlpha, true, ""},
		{"beta hidden", "%%🔐β " + sampleData + " 🔐%%", crypto.VersionBeta, false, ""},
		{"beta visible", "🔐β " + sampleData + " 🔐", crypto.VersionBeta, true, ""},
		{"beta with hint", "%%🔐β 💡first pet💡" + sampleData + " 🔐%%", crypto.VersionBeta, false, "first pet"},
		{"obsolete with hint", "%%🔐 💡h💡" + sampleData + " 🔐%%", crypto.VersionObsolete, false, "h"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span, err := ParseSpan(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.version, span.Version)
			assert.Equal(t, tt.visible, span.Visible)
			assert.Equal(t, tt.hint, span.Hint)
			assert.Equal(t, sampleData, span.EncodedData)
			assert.Equal(t, tt.in, span.String())
		})
	}
}

func TestParseSpan_Malformed(t *testing.T) {
	cases := map[string]string{
		"no marker":         sampleData,
		"missing suffix":    "%%🔐β " + sampleData,
		"unknown glyph":     "🔐γ " + sampleData + " 🔐",
		"unterminated hint": "%%🔐β 💡oops" + sampleData + " 🔐%%",
		"empty data":        "%%🔐β  🔐%%",
		"not base64":        "%%🔐β not*base64! 🔐%%",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSpan(in)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestNewSpan(t *testing.T) {
	span, err := NewSpan("hint", sampleData, false)
	require.NoError(t, err)
	assert.Equal(t, crypto.Current, span.Version)
	assert.Equal(t, "%%🔐β 💡hint💡"+sampleData+" 🔐%%", span.String())

	span, err = NewSpan("", sampleData, true)
	require.NoError(t, err)
	assert.Equal(t, "🔐β "+sampleData+" 🔐", span.String())

	_, err = NewSpan("bad 💡 hint", sampleData, false)
	assert.ErrorIs(t, err, ErrInvalidHint)
}

func TestCheckHint(t *testing.T) {
	assert.NoError(t, CheckHint(""))
	assert.NoError(t, CheckHint("the usual, 2024"))
	for _, hint := range []string{"a 💡", "🔐", "first\nsecond", "line\r"} {
		assert.ErrorIs(t, CheckHint(hint), ErrInvalidHint, "hint %q", hint)
	}
}

func TestScan(t *testing.T) {
	hidden := "%%🔐β 💡h💡" + sampleData + " 🔐%%"
	visible := "🔐α " + sampleData + " 🔐"
	obsolete := "%%🔐 " + sampleData + " 🔐%%"

	body := strings.Join([]string{
		"# Title",
		"before " + hidden + " after",
		visible,
		"a lonely 🔐 glyph and " + obsolete,
		"broken %%🔐β " + sampleData,
	}, "\n")

	matches := Scan(body)
	require.Len(t, matches, 3)

	assert.Equal(t, hidden, body[matches[0].Start:matches[0].End])
	assert.Equal(t, "h", matches[0].Span.Hint)
	assert.Equal(t, visible, body[matches[1].Start:matches[1].End])
	assert.True(t, matches[1].Span.Visible)
	assert.Equal(t, obsolete, body[matches[2].Start:matches[2].End])
	assert.Equal(t, crypto.VersionObsolete, matches[2].Span.Version)
}

func TestScan_AdjacentSpans(t *testing.T) {
	hidden := "%%🔐β QUFB 🔐%%"
	visible := "🔐β QkJC 🔐"

	matches := Scan(hidden + visible)
	require.Len(t, matches, 2)
	assert.False(t, matches[0].Span.Visible)
	assert.Equal(t, len(hidden), matches[1].Start)
	assert.True(t, matches[1].Span.Visible)
	assert.Equal(t, "QkJC", matches[1].Span.EncodedData)
}

func TestScan_PercentBeforeVisibleSpan(t *testing.T) {
	body := "discount 50%%🔐β QkJC 🔐"

	matches := Scan(body)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].Span.Visible)
	assert.Equal(t, "🔐β QkJC 🔐", body[matches[0].Start:matches[0].End])
}

func TestScan_SpanDoesNotCrossLines(t *testing.T) {
	body := "%%🔐β " + sampleData + "\n 🔐%%"
	assert.Empty(t, Scan(body))
}
