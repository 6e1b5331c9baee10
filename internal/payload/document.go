package payload

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/illarion/notelock/internal/crypto"
)

var (
	ErrMalformed   = errors.New("malformed payload")
	ErrInvalidHint = errors.New("hint contains a reserved marker or a line break")
)

// DocumentExt is the file extension of whole-document payloads
const DocumentExt = ".mdenc"

// Document is a whole-document payload as stored in a .mdenc file
type Document struct {
	Version     string `json:"version"`
	Hint        string `json:"hint"`
	EncodedData string `json:"encodedData"`
}

// NewDocument wraps freshly encrypted data with the current format tag
func NewDocument(hint, encodedData string) *Document {
	return &Document{
		Version:     crypto.Current.DocumentTag(),
		Hint:        hint,
		EncodedData: encodedData,
	}
}

// ParseDocument extracts a Document from the contents of a .mdenc file.
// Blank input yields an empty document so new, empty files can be opened.
func ParseDocument(text string) (*Document, error) {
	if strings.TrimSpace(text) == "" {
		return &Document{}, nil
	}

	var doc Document
	dec := json.NewDecoder(strings.NewReader(text))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after document", ErrMalformed)
	}
	if doc.Version == "" {
		return nil, fmt.Errorf("%w: missing version", ErrMalformed)
	}
	if doc.EncodedData == "" {
		return nil, fmt.Errorf("%w: missing data", ErrMalformed)
	}
	if _, err := base64.StdEncoding.DecodeString(doc.EncodedData); err != nil {
		return nil, fmt.Errorf("%w: data is not base64", ErrMalformed)
	}
	return &doc, nil
}

// IsEmpty reports whether the document came from a blank .mdenc file
func (d *Document) IsEmpty() bool {
	return d.Version == "" && d.EncodedData == ""
}

// FormatVersion resolves the document tag to an engine version
func (d *Document) FormatVersion() (crypto.Version, error) {
	v, ok := crypto.ParseDocumentVersion(d.Version)
	if !ok {
		return 0, &crypto.UnsupportedVersionError{Tag: d.Version}
	}
	return v, nil
}

// Encode renders the document as indented JSON
func (d *Document) Encode() (string, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode document: %w", err)
	}
	return string(data), nil
}
