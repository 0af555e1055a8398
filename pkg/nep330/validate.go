package nep330

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate checks the metadata before anything expensive happens with it. Checks run in a
// fixed order: build info presence, contract path, build command, build environment and,
// if whitelist is not nil, the whitelist. A nil whitelist disables the policy check.
func (m *ContractSourceMetadata) Validate(whitelist *Whitelist) error {
	if m.BuildInfo == nil {
		return newValidationError(KindMissingBuildInfo, "build_info", "",
			"`build_info` field of `ContractSourceMetadata` cannot be null")
	}
	bi := m.BuildInfo

	if err := ValidateContractPath(bi.ContractPath); err != nil {
		return err
	}
	if err := validateBuildCommand(bi.BuildCommand); err != nil {
		return err
	}
	ref, err := ParseImageReference(bi.BuildEnvironment)
	if err != nil {
		return err
	}

	if whitelist == nil {
		return nil
	}
	return whitelist.Check(ref.Image, bi.BuildCommand)
}

// ValidateContractPath ensures p is a relative unix path made of UTF-8 components
func ValidateContractPath(p string) error {
	if strings.ContainsRune(p, 0) {
		return newValidationError(KindInvalidContractPath, "contract_path", p,
			fmt.Sprintf("`contract_path` field (`%q`) of `BuildInfo` isn't a valid unix path: contains a NUL byte", p))
	}
	if strings.HasPrefix(p, "/") {
		return newValidationError(KindInvalidContractPath, "contract_path", p,
			fmt.Sprintf("`contract_path` field (`%s`) of `BuildInfo` isn't a relative unix path", p))
	}
	for _, component := range ContractPathComponents(p) {
		if !utf8.ValidString(component) {
			return newValidationError(KindInvalidContractPath, "contract_path", p,
				fmt.Sprintf("`contract_path` field (`%q`) of `BuildInfo` contains a component which is not a valid utf8 string: `%q`", p, component))
		}
	}
	return nil
}

// ContractPathComponents splits a unix contract path into its non-empty components.
// "." components are dropped, ".." is kept.
func ContractPathComponents(p string) []string {
	var res []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		res = append(res, seg)
	}
	return res
}

func validateBuildCommand(cmd []string) error {
	if len(cmd) == 0 {
		return newValidationError(KindEmptyBuildCommand, "build_command", "",
			"`build_command` field of `BuildInfo` cannot be empty")
	}
	for i, token := range cmd {
		if token == "" {
			return newValidationError(KindEmptyCommandToken, "build_command", strings.Join(cmd, " "),
				fmt.Sprintf("`build_command` field of `BuildInfo` contains an empty token at index %d", i))
		}
	}
	return nil
}
