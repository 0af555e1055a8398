package nep330

import "fmt"

// StandardName is the identifier under which the metadata schema lists itself in Standards
const StandardName = "nep330"

// ContractSourceMetadata describes a deployed contract's source code and supported standards.
// It follows the NEP-330 standard: https://github.com/near/NEPs/blob/master/neps/nep-0330.md
type ContractSourceMetadata struct {
	// Version is an optional version identifier, e.g. "1.0.0" or a git commit.
	Version *string `json:"version,omitempty" yaml:"version,omitempty"`

	// Link optionally points to the source code repository or tree,
	// e.g. a GitHub URL or an IPFS CID.
	Link *string `json:"link,omitempty" yaml:"link,omitempty"`

	// Standards lists supported NEAR standards. Added in NEP-330 1.1.0 and always
	// includes nep330 itself.
	Standards []Standard `json:"standards" yaml:"standards"`

	// BuildInfo holds everything required to reproduce the WASM build. Added in NEP-330 1.2.0.
	BuildInfo *BuildInfo `json:"build_info,omitempty" yaml:"build_info,omitempty"`
}

// Standard names an implemented standard and its version
type Standard struct {
	Standard string `json:"standard" yaml:"standard"`
	Version  string `json:"version" yaml:"version"`
}

// BuildInfo defines the details for formal WASM build reproducibility verification
type BuildInfo struct {
	// BuildEnvironment references the docker image of the build environment, e.g.
	// "sourcescan/cargo-near:0.13.3-rust-1.84.0@sha256:722198dd...".
	BuildEnvironment string `json:"build_environment" yaml:"build_environment"`

	// BuildCommand is the exact command used to build the contract, with all flags.
	BuildCommand []string `json:"build_command" yaml:"build_command"`

	// ContractPath is the relative unix path of the contract within the source tree.
	// The empty string denotes the repository root.
	ContractPath string `json:"contract_path" yaml:"contract_path"`

	// SourceCodeSnapshot references the source snapshot the contract was built from, e.g.
	// "git+https://github.com/org/repo?rev=8d8a8a0f".
	SourceCodeSnapshot string `json:"source_code_snapshot" yaml:"source_code_snapshot"`

	// OutputWasmPath is where the build placed the WASM binary inside the build
	// environment. It must be a sub-path of the repo mount. Added in NEP-330 1.3.0.
	OutputWasmPath *string `json:"output_wasm_path,omitempty" yaml:"output_wasm_path,omitempty"`
}

// DockerEnvArgs produces the `--env KEY=VALUE` arguments that expose the metadata to the build container
func (m *ContractSourceMetadata) DockerEnvArgs() []string {
	var res []string
	add := func(key, value string) {
		res = append(res, "--env", fmt.Sprintf("%s=%s", key, value))
	}

	if bi := m.BuildInfo; bi != nil {
		add(EnvBuildEnvironment, bi.BuildEnvironment)
		add(EnvSourceCodeSnapshot, bi.SourceCodeSnapshot)
		add(EnvContractPath, bi.ContractPath)
		if bi.OutputWasmPath != nil {
			add(EnvOutputWasmPath, *bi.OutputWasmPath)
		}
	}
	if m.Link != nil {
		add(EnvLink, *m.Link)
	}

	return res
}
