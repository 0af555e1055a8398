package reprobuild

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
)

const (
	testDigest           = "a9d8bee7b134856cc8baa142494a177f2ba9ecfededfcdd38f634e14cca8aae2"
	testBuildEnvironment = "sourcescan/cargo-near:0.13.4-rust-1.85.0@sha256:" + testDigest
	testSnapshot         = "git+https://github.com/dj8yfo/verify_contracts_collection?rev=e3303f0cf8761b99f84f93c3a2d7046be6f4edb5"
	testLink             = "https://github.com/dj8yfo/verify_contracts_collection/tree/e3303f0cf8761b99f84f93c3a2d7046be6f4edb5"
)

func testMetadata(mod func(bi *nep330.BuildInfo)) *nep330.ContractSourceMetadata {
	link := testLink
	version := "1.0.0"
	bi := &nep330.BuildInfo{
		BuildEnvironment:   testBuildEnvironment,
		BuildCommand:       []string{"cargo", "near", "build", "non-reproducible-wasm", "--locked"},
		ContractPath:       "",
		SourceCodeSnapshot: testSnapshot,
	}
	if mod != nil {
		mod(bi)
	}
	return &nep330.ContractSourceMetadata{
		Version:   &version,
		Link:      &link,
		Standards: []nep330.Standard{{Standard: "nep330", Version: "1.2.0"}},
		BuildInfo: bi,
	}
}

func withOutputPath(p string) func(bi *nep330.BuildInfo) {
	return func(bi *nep330.BuildInfo) {
		bi.OutputWasmPath = &p
	}
}

// writeScript places an executable shell script in a fresh temporary directory
func writeScript(t *testing.T, name, content string) string {
	t.Helper()

	fn := filepath.Join(t.TempDir(), name)
	err := os.WriteFile(fn, []byte("#!/bin/sh\n"+content), 0755)
	require.NoError(t, err)
	return fn
}

// fakeDocker records its arguments one per line in argsFile, prints a line to stdout and stderr
// and exits with the given status
func fakeDocker(t *testing.T, argsFile string, status int) string {
	t.Helper()

	return writeScript(t, "docker", `
for arg in "$@"; do
	echo "$arg" >> "`+argsFile+`"
done
echo "building contract"
echo "some diagnostics" >&2
exit `+strconv.Itoa(status)+`
`)
}

func writeFile(t *testing.T, fn, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(fn), 0755))
	require.NoError(t, os.WriteFile(fn, []byte(content), 0644))
}

func canonicalTempDir(t *testing.T) string {
	t.Helper()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	return dir
}
