package crypto

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_NumericTags(t *testing.T) {
	tests := []struct {
		tag  Version
		want Version
	}{
		{VersionObsolete, VersionObsolete},
		{VersionAlpha, VersionAlpha},
		{VersionBeta, VersionBeta},
	}
	for _, tt := range tests {
		e, ok := ForVersion(tt.tag)
		require.True(t, ok, tt.tag.String())
		assert.Equal(t, tt.want, e.Version())
	}
}

func TestSelector_DocumentTags(t *testing.T) {
	e, ok := ForDocumentVersion("1.0")
	require.True(t, ok)
	assert.Same(t, engines[VersionAlpha], e)

	e, ok = ForDocumentVersion("2.0")
	require.True(t, ok)
	assert.Same(t, engines[VersionBeta], e)

	n, ok := ForVersion(VersionBeta)
	require.True(t, ok)
	assert.Same(t, e, n, "numeric and dotted tags must share one engine")
}

func TestSelector_Unknown(t *testing.T) {
	for _, tag := range []string{"3.0", "0.0", "", "2", "v2"} {
		_, ok := ForDocumentVersion(tag)
		assert.False(t, ok, tag)

		_, err := SelectDocument(tag)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedVersion))

		var uv *UnsupportedVersionError
		require.ErrorAs(t, err, &uv)
		assert.Equal(t, tag, uv.Tag)
	}

	for _, v := range []Version{3, 99, -1} {
		_, ok := ForVersion(v)
		assert.False(t, ok)

		_, err := Select(v)
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
	}
}

func TestSelect_KnownVersion(t *testing.T) {
	e, err := Select(VersionAlpha)
	require.NoError(t, err)
	assert.Equal(t, VersionAlpha, e.Version())

	e, err = SelectDocument("2.0")
	require.NoError(t, err)
	assert.Equal(t, VersionBeta, e.Version())
}

func TestDefault_IsCurrent(t *testing.T) {
	e := Default()
	assert.Equal(t, Current, e.Version())
	assert.Equal(t, VersionBeta, e.Version())
	assert.False(t, e.DecryptOnly())

	p := e.Params()
	assert.Equal(t, 16, p.SaltSize)
	assert.Equal(t, 16, p.NonceSize)
	assert.Equal(t, 210000, p.Iterations)
}

func TestDocumentTag(t *testing.T) {
	assert.Equal(t, "1.0", VersionAlpha.DocumentTag())
	assert.Equal(t, "2.0", VersionBeta.DocumentTag())
	assert.Equal(t, "", VersionObsolete.DocumentTag())
}

func TestVersion_String(t *testing.T) {
	assert.Equal(t, "obsolete", VersionObsolete.String())
	assert.Equal(t, "beta", VersionBeta.String())
	assert.Equal(t, "v7", Version(7).String())
}
