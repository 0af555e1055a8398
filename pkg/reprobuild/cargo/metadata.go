// Package cargo reads the parts of `cargo metadata` needed to locate a contract's build output.
package cargo

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

const (
	// EnvvarCargo overrides the cargo executable, as cargo itself does for its subcommands
	EnvvarCargo = "CARGO"

	// outputSubdir is where cargo-near places its artifacts within the target directory
	outputSubdir = "near"

	lockedHint = "remove the --locked flag"
)

var (
	// ErrLockfileOutdated is returned when `cargo metadata --locked` refuses a missing or stale Cargo.lock
	ErrLockfileOutdated = errors.New("Cargo.lock is absent or not up-to-date")
	// ErrMalformedManifest is returned for any other failure of `cargo metadata`
	ErrMalformedManifest = errors.New("Error invoking `cargo metadata`. Your `Cargo.toml` file is likely malformed")
	// ErrNoRootPackage is returned when the manifest belongs to a virtual workspace
	ErrNoRootPackage = errors.New("cargo metadata has no root package. The manifest likely belongs to a virtual workspace and not to a contract's crate")
)

// Metadata is the subset of `cargo metadata --format-version 1` we care about
type Metadata struct {
	Packages        []Package `json:"packages"`
	WorkspaceRoot   string    `json:"workspace_root"`
	TargetDirectory string    `json:"target_directory"`
	Resolve         *Resolve  `json:"resolve"`
}

// Package is a single package in the metadata
type Package struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Version      string `json:"version"`
	ManifestPath string `json:"manifest_path"`
}

// Resolve is the dependency resolution section of the metadata
type Resolve struct {
	Root *string `json:"root"`
}

// RootPackage returns the package `cargo metadata` was invoked for, if any
func (m *Metadata) RootPackage() (*Package, bool) {
	if m.Resolve != nil && m.Resolve.Root != nil {
		for i := range m.Packages {
			if m.Packages[i].ID == *m.Resolve.Root {
				return &m.Packages[i], true
			}
		}
		return nil, false
	}

	rootManifest := filepath.Join(m.WorkspaceRoot, ManifestFilename)
	for i := range m.Packages {
		if m.Packages[i].ManifestPath == rootManifest {
			return &m.Packages[i], true
		}
	}
	return nil, false
}

// CrateMetadata is what we know about the contract crate after collecting its metadata
type CrateMetadata struct {
	RootPackage     Package
	TargetDirectory string
	ManifestPath    ManifestPath
	Raw             *Metadata
}

// Collect runs `cargo metadata` for the crate at manifest and determines the directory cargo-near
// writes its output to.
func Collect(manifest ManifestPath, noLocked bool) (*CrateMetadata, error) {
	md, err := Fetch(manifest, noLocked)
	if err != nil {
		return nil, err
	}
	root, ok := md.RootPackage()
	if !ok {
		return nil, ErrNoRootPackage
	}

	md.TargetDirectory, err = forceCanonicalizeDir(md.TargetDirectory)
	if err != nil {
		return nil, err
	}
	md.WorkspaceRoot, err = canonicalize(md.WorkspaceRoot)
	if err != nil {
		return nil, err
	}

	target, err := forceCanonicalizeDir(filepath.Join(md.TargetDirectory, outputSubdir))
	if err != nil {
		return nil, err
	}

	manifestDir, err := manifest.Directory()
	if err != nil {
		return nil, err
	}
	if manifestDir != md.WorkspaceRoot {
		// workspace members get a subdirectory of their own
		target, err = forceCanonicalizeDir(filepath.Join(target, FormattedPackageName(root.Name)))
		if err != nil {
			return nil, err
		}
	}

	res := &CrateMetadata{
		RootPackage:     *root,
		TargetDirectory: target,
		ManifestPath:    manifest,
		Raw:             md,
	}
	log.WithFields(log.Fields{
		"package":   root.Name,
		"version":   root.Version,
		"workspace": md.WorkspaceRoot,
		"target":    target,
	}).Debug("collected crate metadata")
	return res, nil
}

// FormattedPackageName normalizes a package name to the name of its library artifact
func FormattedPackageName(name string) string {
	return strings.ReplaceAll(name, "-", "_")
}

// LegacyOutputPath is where cargo-near places the WASM of this crate
func (c *CrateMetadata) LegacyOutputPath() string {
	log.WithField("dir", c.TargetDirectory).Info("resolved output directory")
	return filepath.Join(c.TargetDirectory, FormattedPackageName(c.RootPackage.Name)+".wasm")
}

// Command produces the `cargo metadata` invocation for manifest
func Command(manifest ManifestPath, noLocked bool) *exec.Cmd {
	exe := os.Getenv(EnvvarCargo)
	if exe == "" {
		exe = "cargo"
	}
	args := []string{"metadata", "--format-version", "1", "--manifest-path", manifest.Path}
	if !noLocked {
		args = append(args, "--locked")
	}
	return exec.Command(exe, args...)
}

// Fetch runs `cargo metadata` and parses its output
func Fetch(manifest ManifestPath, noLocked bool) (*Metadata, error) {
	cmd := Command(manifest, noLocked)
	log.WithField("manifest", manifest.Path).WithField("command", strings.Join(cmd.Args, " ")).Info("fetching cargo metadata")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if strings.Contains(msg, lockedHint) {
			return nil, xerrors.Errorf("%s: %w", msg, ErrLockfileOutdated)
		}
		if msg != "" {
			return nil, xerrors.Errorf("%s (%v): %w", msg, err, ErrMalformedManifest)
		}
		return nil, xerrors.Errorf("%v: %w", err, ErrMalformedManifest)
	}

	md, err := ParseMetadata(stdout.Bytes())
	if err != nil {
		return nil, xerrors.Errorf("%v: %w", err, ErrMalformedManifest)
	}
	return md, nil
}

// ParseMetadata parses the first line of out that holds a JSON object
func ParseMetadata(out []byte) (*Metadata, error) {
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if !bytes.HasPrefix(line, []byte("{")) {
			continue
		}
		var md Metadata
		if err := json.Unmarshal(line, &md); err != nil {
			return nil, xerrors.Errorf("cannot parse cargo metadata: %w", err)
		}
		return &md, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, xerrors.Errorf("cannot read cargo metadata: %w", err)
	}
	return nil, xerrors.Errorf("cargo metadata produced no JSON output")
}

func forceCanonicalizeDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", xerrors.Errorf("failed to create directory `%s`: %w", dir, err)
	}
	return canonicalize(dir)
}
