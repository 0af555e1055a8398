package nep330

import (
	_ "crypto/sha256"
	"regexp"

	"github.com/opencontainers/go-digest"
)

// buildEnvironmentPattern matches `<image>[:<tag>]@sha256:<64 hex chars>`
var buildEnvironmentPattern = regexp.MustCompile(`^(?P<image>[^:@\s]+?)(?::(?P<tag>[^@\s]+?))?@sha256:(?P<digest>[a-f0-9]{64})$`)

// ImageReference is a parsed BuildInfo.BuildEnvironment
type ImageReference struct {
	Image  string
	Tag    string
	Digest digest.Digest
}

// String reassembles the reference in its original form
func (r ImageReference) String() string {
	res := r.Image
	if r.Tag != "" {
		res += ":" + r.Tag
	}
	return res + "@" + r.Digest.String()
}

// ParseImageReference parses a build environment reference. Only digest-pinned references are accepted.
func ParseImageReference(ref string) (ImageReference, error) {
	match := buildEnvironmentPattern.FindStringSubmatch(ref)
	if match == nil {
		return ImageReference{}, newValidationError(
			KindInvalidBuildEnvironmentFormat,
			"build_environment",
			ref,
			"`build_environment` field (`"+ref+"`) of `BuildInfo` doesn't match the `<image>[:<tag>]@sha256:<digest>` format",
		)
	}

	res := ImageReference{
		Image:  match[buildEnvironmentPattern.SubexpIndex("image")],
		Tag:    match[buildEnvironmentPattern.SubexpIndex("tag")],
		Digest: digest.NewDigestFromEncoded(digest.SHA256, match[buildEnvironmentPattern.SubexpIndex("digest")]),
	}
	if err := res.Digest.Validate(); err != nil {
		return ImageReference{}, &ValidationError{
			Kind:    KindInvalidBuildEnvironmentFormat,
			Field:   "build_environment",
			Value:   ref,
			Message: "`build_environment` field (`" + ref + "`) of `BuildInfo` carries an invalid digest",
			Cause:   err,
		}
	}
	return res, nil
}
