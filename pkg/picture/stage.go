package picture

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/covidliste/directory/pkg/constants"
	"github.com/covidliste/directory/pkg/errors"
)

// stagingDir returns the directory next to the pictures directory where the
// avatars of the current run are written, creating it on first use.
// Callers hold p.mu.
func (p *Pipeline) stagingDir() (string, error) {
	if p.staging != "" {
		return p.staging, nil
	}

	parent := filepath.Dir(p.dir)
	if err := os.MkdirAll(parent, constants.DirPermissions); err != nil {
		return "", errors.WrapIO("create", parent, err)
	}
	dir, err := os.MkdirTemp(parent, "."+filepath.Base(p.dir)+".*.tmp")
	if err != nil {
		return "", errors.WrapIO("create", "staging directory", err)
	}
	p.staging = dir
	p.produced = make(map[string]bool)
	return dir, nil
}

// Commit publishes the avatars stored since the last Commit or Discard.
// Avatars already in the pictures directory that this run did not store
// are removed, so a volunteer who withdrew consent loses their picture.
func (p *Pipeline) Commit() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	staging, err := p.stagingDir()
	if err != nil {
		return err
	}
	produced := p.produced
	defer p.reset()

	if err := os.MkdirAll(p.dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", p.dir, err)
	}
	for name := range produced {
		if err := os.Rename(filepath.Join(staging, name), filepath.Join(p.dir, name)); err != nil {
			return errors.WrapIO("move", filepath.Join(p.dir, name), err)
		}
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return errors.WrapIO("read", p.dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isAvatar(name) || produced[name] {
			continue
		}
		if err := os.Remove(filepath.Join(p.dir, name)); err != nil {
			return errors.WrapIO("remove", filepath.Join(p.dir, name), err)
		}
	}
	return nil
}

// Discard drops the avatars stored since the last Commit or Discard.
func (p *Pipeline) Discard() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.staging == "" {
		return nil
	}
	staging := p.staging
	p.staging, p.produced = "", nil
	return errors.WrapIO("remove", staging, os.RemoveAll(staging))
}

// reset forgets the staging directory after removing what is left of it.
func (p *Pipeline) reset() {
	if p.staging != "" {
		_ = os.RemoveAll(p.staging)
	}
	p.staging = ""
	p.produced = nil
}

func isAvatar(name string) bool {
	return strings.HasPrefix(name, constants.AvatarPrefix) && strings.HasSuffix(name, constants.AvatarExt)
}
