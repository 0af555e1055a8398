package nep330

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const (
	testDigest           = "a9d8bee7b134856cc8baa142494a177f2ba9ecfededfcdd38f634e14cca8aae2"
	testBuildEnvironment = "sourcescan/cargo-near:0.13.4-rust-1.85.0@sha256:" + testDigest
)

func testMetadata(mod func(bi *BuildInfo)) *ContractSourceMetadata {
	link := "https://github.com/dj8yfo/verify_contracts_collection/tree/e3303f0cf8761b99f84f93c3a2d7046be6f4edb5"
	version := "1.0.0"
	bi := &BuildInfo{
		BuildEnvironment:   testBuildEnvironment,
		BuildCommand:       []string{"cargo", "near", "build", "non-reproducible-wasm", "--locked"},
		ContractPath:       "",
		SourceCodeSnapshot: "git+https://github.com/dj8yfo/verify_contracts_collection?rev=e3303f0cf8761b99f84f93c3a2d7046be6f4edb5",
	}
	if mod != nil {
		mod(bi)
	}
	return &ContractSourceMetadata{
		Version:   &version,
		Link:      &link,
		Standards: []Standard{{Standard: "nep330", Version: "1.2.0"}},
		BuildInfo: bi,
	}
}

func TestValidate(t *testing.T) {
	type Expectation struct {
		Kind  ErrorKind
		Class ErrorClass
	}
	tests := []struct {
		Name        string
		Metadata    *ContractSourceMetadata
		Expectation Expectation
	}{
		{
			Name:     "valid",
			Metadata: testMetadata(nil),
		},
		{
			Name:     "valid nested contract path",
			Metadata: testMetadata(func(bi *BuildInfo) { bi.ContractPath = "near/omni-prover/wormhole-omni-prover-proxy" }),
		},
		{
			Name:     "valid without tag",
			Metadata: testMetadata(func(bi *BuildInfo) { bi.BuildEnvironment = "org/img@sha256:" + testDigest }),
		},
		{
			Name:        "missing build info",
			Metadata:    &ContractSourceMetadata{},
			Expectation: Expectation{Kind: KindMissingBuildInfo, Class: ClassSchema},
		},
		{
			Name:        "absolute contract path",
			Metadata:    testMetadata(func(bi *BuildInfo) { bi.ContractPath = "/home/near/code" }),
			Expectation: Expectation{Kind: KindInvalidContractPath, Class: ClassPath},
		},
		{
			Name:        "non utf8 contract path",
			Metadata:    testMetadata(func(bi *BuildInfo) { bi.ContractPath = "contracts/\xff\xfe" }),
			Expectation: Expectation{Kind: KindInvalidContractPath, Class: ClassPath},
		},
		{
			Name:        "NUL in contract path",
			Metadata:    testMetadata(func(bi *BuildInfo) { bi.ContractPath = "contracts/a\x00b" }),
			Expectation: Expectation{Kind: KindInvalidContractPath, Class: ClassPath},
		},
		{
			Name:        "empty build command",
			Metadata:    testMetadata(func(bi *BuildInfo) { bi.BuildCommand = nil }),
			Expectation: Expectation{Kind: KindEmptyBuildCommand, Class: ClassCommand},
		},
		{
			Name:        "empty command token",
			Metadata:    testMetadata(func(bi *BuildInfo) { bi.BuildCommand = []string{"cargo", "", "build"} }),
			Expectation: Expectation{Kind: KindEmptyCommandToken, Class: ClassCommand},
		},
		{
			Name:        "build environment without digest",
			Metadata:    testMetadata(func(bi *BuildInfo) { bi.BuildEnvironment = "sourcescan/cargo-near:0.13.4-rust-1.85.0" }),
			Expectation: Expectation{Kind: KindInvalidBuildEnvironmentFormat, Class: ClassFormat},
		},
		{
			Name:        "build environment with short digest",
			Metadata:    testMetadata(func(bi *BuildInfo) { bi.BuildEnvironment = "org/img@sha256:abcdef" }),
			Expectation: Expectation{Kind: KindInvalidBuildEnvironmentFormat, Class: ClassFormat},
		},
		{
			Name:        "build environment with uppercase digest",
			Metadata:    testMetadata(func(bi *BuildInfo) { bi.BuildEnvironment = "org/img@sha256:A9D8BEE7B134856CC8BAA142494A177F2BA9ECFEDEDFCDD38F634E14CCA8AAE2" }),
			Expectation: Expectation{Kind: KindInvalidBuildEnvironmentFormat, Class: ClassFormat},
		},
		{
			Name: "path is checked before command",
			Metadata: testMetadata(func(bi *BuildInfo) {
				bi.ContractPath = "/abs"
				bi.BuildCommand = nil
				bi.BuildEnvironment = "garbage"
			}),
			Expectation: Expectation{Kind: KindInvalidContractPath, Class: ClassPath},
		},
		{
			Name: "command is checked before environment",
			Metadata: testMetadata(func(bi *BuildInfo) {
				bi.BuildCommand = []string{""}
				bi.BuildEnvironment = "garbage"
			}),
			Expectation: Expectation{Kind: KindEmptyCommandToken, Class: ClassCommand},
		},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			err := test.Metadata.Validate(nil)

			var act Expectation
			if err != nil {
				verr, ok := err.(*ValidationError)
				if !ok {
					t.Fatalf("expected *ValidationError, got %T: %v", err, err)
				}
				act.Kind = verr.Kind
				act.Class = verr.Kind.Class()
			}
			if diff := cmp.Diff(test.Expectation, act); diff != "" {
				t.Errorf("Validate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateWithWhitelist(t *testing.T) {
	whitelist := Whitelist{
		{ImageOrgPrefix: "sourcescan/cargo-near", ExpectedCommandPrefix: []string{"cargo", "near", "build"}},
	}
	tests := []struct {
		Name        string
		Metadata    *ContractSourceMetadata
		Whitelist   *Whitelist
		Expectation ErrorKind
	}{
		{
			Name:      "whitelisted",
			Metadata:  testMetadata(nil),
			Whitelist: &whitelist,
		},
		{
			Name:        "image not whitelisted",
			Metadata:    testMetadata(func(bi *BuildInfo) { bi.BuildEnvironment = "other/img:1@sha256:" + testDigest }),
			Whitelist:   &whitelist,
			Expectation: KindImageNotWhitelisted,
		},
		{
			Name:        "command not whitelisted",
			Metadata:    testMetadata(func(bi *BuildInfo) { bi.BuildCommand = []string{"cargo", "build", "--release"} }),
			Whitelist:   &whitelist,
			Expectation: KindCommandPrefixMismatch,
		},
		{
			Name:        "empty whitelist rejects everything",
			Metadata:    testMetadata(nil),
			Whitelist:   &Whitelist{},
			Expectation: KindImageNotWhitelisted,
		},
		{
			Name:        "registry port is read as a tag",
			Metadata:    testMetadata(func(bi *BuildInfo) { bi.BuildEnvironment = "localhost:5000/img@sha256:" + testDigest }),
			Whitelist:   &Whitelist{{ImageOrgPrefix: "localhost:5000/img", ExpectedCommandPrefix: []string{"cargo"}}},
			Expectation: KindImageNotWhitelisted,
		},
		{
			Name:      "registry host is the whitelisted image",
			Metadata:  testMetadata(func(bi *BuildInfo) { bi.BuildEnvironment = "localhost:5000/img@sha256:" + testDigest }),
			Whitelist: &Whitelist{{ImageOrgPrefix: "localhost", ExpectedCommandPrefix: []string{"cargo"}}},
		},
		{
			Name: "format is checked before whitelist",
			Metadata: testMetadata(func(bi *BuildInfo) {
				bi.BuildEnvironment = "other/img:latest"
			}),
			Whitelist:   &whitelist,
			Expectation: KindInvalidBuildEnvironmentFormat,
		},
	}
	for _, test := range tests {
		t.Run(test.Name, func(t *testing.T) {
			err := test.Metadata.Validate(test.Whitelist)

			var act ErrorKind
			if verr, ok := err.(*ValidationError); ok {
				act = verr.Kind
			} else if err != nil {
				t.Fatalf("unexpected error type %T: %v", err, err)
			}
			if act != test.Expectation {
				t.Errorf("Validate() = %q, want %q (err: %v)", act, test.Expectation, err)
			}
		})
	}
}

func TestParseImageReference(t *testing.T) {
	tests := []struct {
		In          string
		Expectation ImageReference
	}{
		{
			In: testBuildEnvironment,
			Expectation: ImageReference{
				Image:  "sourcescan/cargo-near",
				Tag:    "0.13.4-rust-1.85.0",
				Digest: "sha256:" + testDigest,
			},
		},
		{
			In: "org/img@sha256:" + testDigest,
			Expectation: ImageReference{
				Image:  "org/img",
				Digest: "sha256:" + testDigest,
			},
		},		{
			In: "localhost:5000/img@sha256:" + testDigest,
			Expectation: ImageReference{
				Image:  "localhost",
				Tag:    "5000/img",
				Digest: "sha256:" + testDigest,
			},
		},
	}
	for _, test := range tests {
		t.Run(test.In, func(t *testing.T) {
			act, err := ParseImageReference(test.In)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(test.Expectation, act); diff != "" {
				t.Errorf("ParseImageReference() mismatch (-want +got):\n%s", diff)
			}
			if act.String() != test.In {
				t.Errorf("String() = %q, want %q", act.String(), test.In)
			}
		})
	}
}

func TestContractPathComponents(t *testing.T) {
	tests := []struct {
		In          string
		Expectation []string
	}{
		{In: "", Expectation: nil},
		{In: "a/b", Expectation: []string{"a", "b"}},
		{In: "./a//b/", Expectation: []string{"a", "b"}},
		{In: "a/../b", Expectation: []string{"a", "..", "b"}},
	}
	for _, test := range tests {
		if diff := cmp.Diff(test.Expectation, ContractPathComponents(test.In)); diff != "" {
			t.Errorf("ContractPathComponents(%q) mismatch (-want +got):\n%s", test.In, diff)
		}
	}
}
