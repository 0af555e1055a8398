package nep330

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const simplePackageMeta = `
{
  "build_info": {
    "build_command": [
      "cargo",
      "near",
      "build",
      "non-reproducible-wasm",
      "--locked"
    ],
    "build_environment": "sourcescan/cargo-near:0.13.4-rust-1.85.0@sha256:a9d8bee7b134856cc8baa142494a177f2ba9ecfededfcdd38f634e14cca8aae2",
    "contract_path": "",
    "source_code_snapshot": "git+https://github.com/dj8yfo/verify_contracts_collection?rev=e3303f0cf8761b99f84f93c3a2d7046be6f4edb5"
  },
  "link": "https://github.com/dj8yfo/verify_contracts_collection/tree/e3303f0cf8761b99f84f93c3a2d7046be6f4edb5",
  "standards": [
    {
      "standard": "nep330",
      "version": "1.2.0"
    }
  ],
  "version": "1.0.0"
}`

const old10Metadata = `{
  "link": "https://github.com/old/contract_repo",
  "version": "1.0.0"
}`

func TestParseMetadata(t *testing.T) {
	meta, err := ParseMetadata([]byte(simplePackageMeta))
	require.NoError(t, err)
	require.NotNil(t, meta.BuildInfo)
	assert.Equal(t, "", meta.BuildInfo.ContractPath)
	assert.Nil(t, meta.BuildInfo.OutputWasmPath)
	assert.Equal(t, []Standard{{Standard: "nep330", Version: "1.2.0"}}, meta.Standards)
	assert.NoError(t, meta.Validate(nil))
}

func TestParseOld10Metadata(t *testing.T) {
	meta, err := ParseMetadata([]byte(old10Metadata))
	require.NoError(t, err)
	require.NotNil(t, meta.Version)
	assert.Equal(t, "1.0.0", *meta.Version)
	require.NotNil(t, meta.Link)
	assert.Equal(t, "https://github.com/old/contract_repo", *meta.Link)
	assert.Empty(t, meta.Standards)

	err = meta.Validate(nil)
	assert.True(t, IsKind(err, KindMissingBuildInfo))
}

func TestParseMetadataRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not json", doc: `{"build_info":`},
		{name: "not an object", doc: `[]`},
		{name: "command is not a list", doc: `{"build_info": {"build_environment": "x", "build_command": "cargo near build", "contract_path": "", "source_code_snapshot": "x"}}`},
		{name: "missing contract path", doc: `{"build_info": {"build_environment": "x", "build_command": ["cargo"], "source_code_snapshot": "x"}}`},
		{name: "standard without version", doc: `{"standards": [{"standard": "nep330"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMetadata([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, IsKind(err, KindInvalidDocument), "got %v", err)
		})
	}
}

func TestLoadWhitelist(t *testing.T) {
	dir := t.TempDir()

	jsonFN := filepath.Join(dir, "whitelist.json")
	require.NoError(t, os.WriteFile(jsonFN, []byte(`[{"image_org_prefix": "org/img", "expected_command_prefix": ["cargo", "near", "build"]}]`), 0644))

	yamlFN := filepath.Join(dir, "whitelist.yaml")
	require.NoError(t, os.WriteFile(yamlFN, []byte("- image_org_prefix: org/img\n  expected_command_prefix: [cargo, near, build]\n"), 0644))

	expected := Whitelist{{ImageOrgPrefix: "org/img", ExpectedCommandPrefix: []string{"cargo", "near", "build"}}}
	for _, fn := range []string{jsonFN, yamlFN} {
		wl, err := LoadWhitelist(fn)
		require.NoError(t, err, fn)
		assert.Equal(t, expected, wl, fn)
	}

	badFN := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(badFN, []byte(`[{"expected_command_prefix": ["cargo"]}]`), 0644))
	_, err := LoadWhitelist(badFN)
	assert.True(t, IsKind(err, KindInvalidDocument), "got %v", err)
}
