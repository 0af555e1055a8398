package nep330

// Environment variables exposed to the build container. They correspond to fields of
// ContractSourceMetadata, see https://github.com/near/NEPs/blob/master/neps/nep-0330.md
const (
	// EnvBuildEnvironment carries BuildInfo.BuildEnvironment (NEP-330 1.2.0)
	EnvBuildEnvironment = "NEP330_BUILD_INFO_BUILD_ENVIRONMENT"
	// EnvBuildCommand carries BuildInfo.BuildCommand (NEP-330 1.2.0)
	EnvBuildCommand = "NEP330_BUILD_INFO_BUILD_COMMAND"
	// EnvContractPath carries BuildInfo.ContractPath (NEP-330 1.2.0)
	EnvContractPath = "NEP330_BUILD_INFO_CONTRACT_PATH"
	// EnvSourceCodeSnapshot carries BuildInfo.SourceCodeSnapshot (NEP-330 1.2.0)
	EnvSourceCodeSnapshot = "NEP330_BUILD_INFO_SOURCE_CODE_SNAPSHOT"
	// EnvOutputWasmPath carries BuildInfo.OutputWasmPath (NEP-330 1.3.0)
	EnvOutputWasmPath = "NEP330_BUILD_INFO_OUTPUT_WASM_PATH"

	// EnvLink carries ContractSourceMetadata.Link (NEP-330 1.1.0)
	EnvLink = "NEP330_LINK"
	// EnvVersion carries ContractSourceMetadata.Version (NEP-330 1.1.0)
	EnvVersion = "NEP330_VERSION"
)

// EnvServerDisableInteractive is not part of NEP-330. When set, builds never request an
// interactive terminal from docker, which is what headless build servers need.
const EnvServerDisableInteractive = "CARGO_NEAR_SERVER_BUILD_DISABLE_INTERACTIVE"
