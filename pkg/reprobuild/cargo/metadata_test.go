package cargo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetadata(t *testing.T) {
	out := []byte(`warning: unused manifest key: package.metadata.foo
   Updating crates.io index
{"packages":[{"id":"a 0.1.0","name":"a","version":"0.1.0","manifest_path":"/w/Cargo.toml","targets":[]}],"workspace_root":"/w","target_directory":"/w/target","resolve":{"root":"a 0.1.0","nodes":[]},"version":1}
`)
	md, err := ParseMetadata(out)
	require.NoError(t, err)

	root := "a 0.1.0"
	expected := &Metadata{
		Packages:        []Package{{ID: "a 0.1.0", Name: "a", Version: "0.1.0", ManifestPath: "/w/Cargo.toml"}},
		WorkspaceRoot:   "/w",
		TargetDirectory: "/w/target",
		Resolve:         &Resolve{Root: &root},
	}
	if diff := cmp.Diff(expected, md); diff != "" {
		t.Errorf("ParseMetadata() mismatch (-want +got):\n%s", diff)
	}

	_, err = ParseMetadata([]byte("no json here\n"))
	require.Error(t, err)

	_, err = ParseMetadata([]byte("{not json\n"))
	require.Error(t, err)
}

func TestRootPackage(t *testing.T) {
	member := "member 0.1.0"
	missing := "missing 0.1.0"
	packages := []Package{
		{ID: "root 0.1.0", Name: "root", ManifestPath: "/w/Cargo.toml"},
		{ID: member, Name: "member", ManifestPath: "/w/member/Cargo.toml"},
	}

	tests := []struct {
		Name        string
		Metadata    Metadata
		Expectation string
	}{
		{
			Name:        "resolve root",
			Metadata:    Metadata{Packages: packages, WorkspaceRoot: "/w", Resolve: &Resolve{Root: &member}},
			Expectation: "member",
		},
		{
			Name:        "fallback to workspace root manifest",
			Metadata:    Metadata{Packages: packages, WorkspaceRoot: "/w", Resolve: &Resolve{}},
			Expectation: "root",
		},
		{
			Name:        "fallback without resolve",
			Metadata:    Metadata{Packages: packages, WorkspaceRoot: "/w"},
			Expectation: "root",
		},
		{
			Name:     "unknown resolve root",
			Metadata: Metadata{Packages: packages, WorkspaceRoot: "/w", Resolve: &Resolve{Root: &missing}},
		},
		{
			Name:     "virtual workspace",
			Metadata: Metadata{Packages: packages[1:], WorkspaceRoot: "/w"},
		},
	}

	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			var act string
			if pkg, ok := test.Metadata.RootPackage(); ok {
				act = pkg.Name
			}
			assert.Equal(t, test.Expectation, act)
		})
	}
}

func TestFormattedPackageName(t *testing.T) {
	assert.Equal(t, "simple_package", FormattedPackageName("simple-package"))
	assert.Equal(t, "already_ok", FormattedPackageName("already_ok"))
}

func TestCommand(t *testing.T) {
	t.Setenv(EnvvarCargo, "")
	manifest := NewManifestPath("/checkout", []string{"contracts", "x"})

	cmd := Command(manifest, false)
	assert.Equal(t, []string{"cargo", "metadata", "--format-version", "1", "--manifest-path", "/checkout/contracts/x/Cargo.toml", "--locked"}, cmd.Args)

	t.Setenv(EnvvarCargo, "/opt/cargo")
	cmd = Command(manifest, true)
	assert.Equal(t, "/opt/cargo", cmd.Path)
	assert.NotContains(t, cmd.Args, "--locked")
}

func TestManifestPathDirectory(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	res, err := NewManifestPath(dir, nil).Directory()
	require.NoError(t, err)
	assert.Equal(t, dir, res)

	_, err = ManifestPath{Path: filepath.Join(dir, "Other.toml")}.Directory()
	require.Error(t, err)

	_, err = NewManifestPath(dir, []string{"missing"}).Directory()
	require.Error(t, err)
}

func TestCollectVirtualWorkspace(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	mdFile := filepath.Join(dir, "md.json")
	require.NoError(t, os.WriteFile(mdFile, []byte(`{"packages":[],"workspace_root":"`+dir+`","target_directory":"`+dir+`/target","resolve":null}`), 0644))
	script := filepath.Join(dir, "cargo")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\ncat "+mdFile+"\n"), 0755))
	t.Setenv(EnvvarCargo, script)

	_, err = Collect(NewManifestPath(dir, nil), false)
	require.ErrorIs(t, err, ErrNoRootPackage)
}

func TestFetchErrors(t *testing.T) {
	tests := []struct {
		Name        string
		Script      string
		Expectation error
	}{
		{
			Name:        "outdated lock file",
			Script:      "echo 'error: the lock file needs to be updated, remove the --locked flag' >&2\nexit 101\n",
			Expectation: ErrLockfileOutdated,
		},
		{
			Name:        "parse failure",
			Script:      "echo 'error: failed to parse manifest' >&2\nexit 101\n",
			Expectation: ErrMalformedManifest,
		},
		{
			Name:        "silent failure",
			Script:      "exit 1\n",
			Expectation: ErrMalformedManifest,
		},
		{
			Name:        "no JSON output",
			Script:      "echo 'warning: nothing to see'\n",
			Expectation: ErrMalformedManifest,
		},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			script := filepath.Join(t.TempDir(), "cargo")
			require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"+test.Script), 0755))
			t.Setenv(EnvvarCargo, script)

			_, err := Fetch(NewManifestPath(t.TempDir(), nil), false)
			require.ErrorIs(t, err, test.Expectation)
			assert.Contains(t, err.Error(), test.Expectation.Error())
		})
	}
}
