package save

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/errors"
)

// Write streams content produced by fill to the configured destination.
func Write(fill func(io.Writer) error, opts ...Option) error {
	options := Defaults().Apply(opts...)

	if options.writer != nil {
		return fill(options.writer)
	}
	if options.path == "" {
		return errors.NewValidationError("path", "", "a path or a writer is required")
	}
	return atomicWrite(options.path, options.perm, fill)
}

// Encode serializes v in the configured format and writes it. JSON output
// has sorted object keys, two-space indentation and no HTML escaping.
func Encode(v any, opts ...Option) error {
	options := Defaults().Apply(opts...)

	var buf bytes.Buffer
	switch options.format {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", constants.JSONIndent)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(v); err != nil {
			return errors.WrapParse("json", options.path, err)
		}
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return errors.WrapParse("yaml", options.path, err)
		}
		buf.Write(data)
	default:
		return errors.NewValidationError("format", options.format, "unsupported format")
	}

	return Write(func(w io.Writer) error {
		_, err := w.Write(buf.Bytes())
		return err
	}, opts...)
}

// atomicWrite writes to a temporary file next to path and renames it over path.
func atomicWrite(path string, perm os.FileMode, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tempPath := tempFile.Name()
	cleanup := func() {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
	}

	if err := fill(tempFile); err != nil {
		cleanup()
		return errors.WrapIO("write", path, err)
	}
	if err := tempFile.Sync(); err != nil {
		cleanup()
		return errors.WrapIO("sync", path, err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("close", path, err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("chmod", path, err)
	}

	// Atomically move temp file to final location
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return errors.WrapIO("move", path, err)
	}
	return nil
}
