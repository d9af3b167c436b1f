package save

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/covidliste/directory/pkg/errors"
)

func TestEncodeJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "volunteers.json")
	doc := []map[string]any{{"team": "Ops & Co", "anonymous": false, "id": "abc"}}

	require.NoError(t, Encode(doc, WithPath(path)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"anonymous\": false,\n    \"id\": \"abc\",\n    \"team\": \"Ops & Co\"\n  }\n]\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestEncodeYAMLToWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(map[string]int{"violations": 2}, WithWriter(&buf), WithFormat(FormatYAML)))
	assert.Equal(t, "violations: 2\n", buf.String())
}

func TestWriteFailureKeepsPreviousFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "volunteers.json")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o600))

	err := Write(func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("encoder failed")
	}, WithPath(path))

	var ioErr *pkgerrors.IOError
	require.ErrorAs(t, err, &ioErr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be removed")
}

func TestWriteRequiresDestination(t *testing.T) {
	err := Write(func(io.Writer) error { return nil })
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "json", FormatJSON.String())
	assert.Equal(t, "yaml", FormatYAML.String())
	assert.False(t, Format(9).IsValid())
}
