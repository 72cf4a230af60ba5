package crypto

import (
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	assert.Len(t, Digest(nil), 32)
	assert.Equal(t,
		"0e5751c026e543b2e8ab2eb06099daa1d1e5df47778f7787faab45cdf12fe3a8",
		HexDigest(nil))
	assert.Equal(t, Digest(nil), Digest([]byte{}))
	assert.NotEqual(t, Digest([]byte("a")), Digest([]byte("b")))
}

func TestFileDigest(t *testing.T) {
	fsys := afero.NewMemMapFs()
	content := []byte("127.0.0.1 localhost\n")
	require.NoError(t, afero.WriteFile(fsys, "/etc/hosts", content, 0644))
	require.NoError(t, afero.WriteFile(fsys, "/empty", nil, 0644))

	got, err := FileDigest(fsys, "/etc/hosts")
	require.NoError(t, err)
	assert.Equal(t, Digest(content), got)

	got, err = FileDigest(fsys, "/empty")
	require.NoError(t, err)
	assert.Equal(t, Digest(nil), got)

	_, err = FileDigest(fsys, "/missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}
