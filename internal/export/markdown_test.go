package export

import (
	"path/filepath"
	"testing"

	"github.com/josephgoksu/ReqWing/internal/project"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_RequiresFinalDoc(t *testing.T) {
	_, err := Document(nil)
	assert.ErrorIs(t, err, ErrNoDocument)

	_, err = Document(project.New())
	assert.ErrorIs(t, err, ErrNoDocument)
}

func TestWrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	r := project.New()
	r.FinalDocument = "# Software Requirements Specification"

	path, err := New(fs).Write(r, "/out")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", DefaultFileName), path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "# Software Requirements Specification\n", string(data))

	r.FinalDocument = "# v2\n"
	_, err = New(fs).Write(r, "/out")
	require.NoError(t, err)
	data, _ = afero.ReadFile(fs, path)
	assert.Equal(t, "# v2\n", string(data))
}
