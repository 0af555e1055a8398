package reprobuild

import (
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
)

// Version of this verifier, set at link time
var Version = "dev"

// VerificationResult describes a completed verification run
type VerificationResult struct {
	InvocationID string         `json:"invocationId" yaml:"invocationId"`
	Artifact     string         `json:"artifact" yaml:"artifact"`
	Checksum     SHA256Checksum `json:"checksum" yaml:"checksum"`
	Expected     SHA256Checksum `json:"expected" yaml:"expected"`
	Match        bool           `json:"match" yaml:"match"`
	Started      time.Time      `json:"started" yaml:"started"`
	Finished     time.Time      `json:"finished" yaml:"finished"`
}

// Duration is the time the verification took
func (r *VerificationResult) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// Verify validates meta, rebuilds the artifact from the checkout in workdir and compares its hash
// to expected. A mismatching hash is reported through VerificationResult.Match, not as an error.
func Verify(meta *nep330.ContractSourceMetadata, workdir string, expected string, opts ...RunOption) (*VerificationResult, error) {
	options, err := applyRunOpts(opts)
	if err != nil {
		return nil, err
	}

	expectedSum, err := ParseSHA256Checksum(expected)
	if err != nil {
		return nil, xerrors.Errorf("cannot parse expected checksum: %w", err)
	}

	if err := meta.Validate(options.Whitelist); err != nil {
		return nil, err
	}
	for _, w := range meta.RevisionWarnings() {
		log.Warn(w)
	}

	if options.DockerChecks {
		if err := DockerSanityCheck(opts...); err != nil {
			return nil, err
		}
		if err := PullImage(meta.BuildInfo.BuildEnvironment, opts...); err != nil {
			return nil, err
		}
	}

	res := &VerificationResult{
		InvocationID: uuid.New().String(),
		Expected:     expectedSum,
		Started:      time.Now(),
	}
	log.WithField("invocation", res.InvocationID).WithField("workdir", workdir).Info("verifying contract build")

	res.Artifact, err = Run(meta, workdir, opts...)
	if err != nil {
		return nil, err
	}
	res.Checksum, err = ComputeHash(res.Artifact)
	if err != nil {
		return nil, err
	}
	res.Finished = time.Now()
	res.Match = res.Checksum.Equal(expectedSum)

	log.WithFields(log.Fields{
		"invocation": res.InvocationID,
		"artifact":   res.Artifact,
		"checksum":   res.Checksum.String(),
		"expected":   expectedSum.String(),
		"match":      res.Match,
	}).Info("verification finished")
	return res, nil
}
