package nep330

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Whitelist restricts the build images and build commands a caller is willing to re-execute
type Whitelist []WhitelistEntry

// WhitelistEntry allows one image and the command prefix expected for it
type WhitelistEntry struct {
	// ImageOrgPrefix must equal the image name of the build environment exactly,
	// i.e. without tag and digest.
	ImageOrgPrefix string `json:"image_org_prefix" yaml:"image_org_prefix"`

	// ExpectedCommandPrefix is the prefix the build command must start with.
	// Its first token (the program) is not compared.
	ExpectedCommandPrefix []string `json:"expected_command_prefix" yaml:"expected_command_prefix"`
}

// UnmarshalJSON accepts the older `expected_docker_image` name for the image field
func (e *WhitelistEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		ImageOrgPrefix        *string  `json:"image_org_prefix"`
		ExpectedDockerImage   *string  `json:"expected_docker_image"`
		ExpectedCommandPrefix []string `json:"expected_command_prefix"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.ImageOrgPrefix != nil:
		e.ImageOrgPrefix = *raw.ImageOrgPrefix
	case raw.ExpectedDockerImage != nil:
		e.ImageOrgPrefix = *raw.ExpectedDockerImage
	default:
		e.ImageOrgPrefix = ""
	}
	e.ExpectedCommandPrefix = raw.ExpectedCommandPrefix
	return nil
}

// Check enforces the whitelist against the image name captured from the build environment
// and the build command. The image must equal some entry exactly. The command is then
// compared against that entry's prefix on indices [1, len(prefix)); index 0 is skipped
// while the length still counts it.
func (w Whitelist) Check(image string, buildCommand []string) error {
	var candidates []WhitelistEntry
	for _, entry := range w {
		if entry.ImageOrgPrefix == image {
			candidates = append(candidates, entry)
		}
	}
	if len(candidates) == 0 {
		return newValidationError(KindImageNotWhitelisted, "build_environment", image,
			fmt.Sprintf("no matching entry found in whitelist for docker image `%s`", image))
	}

	for _, entry := range candidates {
		if entry.MatchesCommand(buildCommand) {
			return nil
		}
	}
	return newValidationError(KindCommandPrefixMismatch, "build_command", strings.Join(buildCommand, " "),
		fmt.Sprintf("`build_command` %q doesn't start with the expected prefix %q of whitelist entry for docker image `%s`",
			buildCommand, candidates[0].ExpectedCommandPrefix, image))
}

// MatchesCommand reports whether cmd starts with the entry's expected prefix, ignoring index 0
func (e WhitelistEntry) MatchesCommand(cmd []string) bool {
	n := len(e.ExpectedCommandPrefix)
	if n <= 1 {
		return true
	}
	if len(cmd) < n {
		return false
	}
	for i := 1; i < n; i++ {
		if cmd[i] != e.ExpectedCommandPrefix[i] {
			return false
		}
	}
	return true
}
