package cargo

import (
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"
)

// ManifestFilename is the name of every crate manifest
const ManifestFilename = "Cargo.toml"

// ManifestPath points to the Cargo.toml of a crate
type ManifestPath struct {
	Path string
}

// NewManifestPath joins the components of a contract path onto workdir and appends Cargo.toml
func NewManifestPath(workdir string, components []string) ManifestPath {
	elems := append([]string{workdir}, components...)
	elems = append(elems, ManifestFilename)
	return ManifestPath{Path: filepath.Join(elems...)}
}

// Directory returns the canonical directory the manifest lives in
func (m ManifestPath) Directory() (string, error) {
	if filepath.Base(m.Path) != ManifestFilename {
		return "", xerrors.Errorf("manifest path `%s` does not point to a %s", m.Path, ManifestFilename)
	}
	return canonicalize(filepath.Dir(m.Path))
}

func (m ManifestPath) String() string {
	return m.Path
}

// canonicalize resolves symlinks and makes p absolute
func canonicalize(p string) (string, error) {
	res, err := filepath.EvalSymlinks(p)
	if err != nil {
		return "", xerrors.Errorf("failed to canonicalize path `%s`: %w", p, err)
	}
	res, err = filepath.Abs(res)
	if err != nil {
		return "", xerrors.Errorf("failed to canonicalize path `%s`: %w", p, err)
	}
	return strings.TrimSuffix(res, string(filepath.Separator)), nil
}
