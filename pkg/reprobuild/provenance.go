package reprobuild

import (
	"bufio"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/in-toto/in-toto-golang/in_toto"
	"github.com/in-toto/in-toto-golang/in_toto/slsa_provenance/common"
	slsa "github.com/in-toto/in-toto-golang/in_toto/slsa_provenance/v0.2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
	"sigs.k8s.io/bom/pkg/provenance"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
)

const (
	// AttestationBundleSuffix is appended to an artifact path to name its attestation bundle
	AttestationBundleSuffix = ".provenance.jsonl"

	// ProvenanceBuilderID is the prefix we use as Builder ID when issuing provenance
	ProvenanceBuilderID = "github.com/wasmrepro/wasmrepro"
)

// NewAttestationEnvelope produces a SLSA v0.2 provenance envelope for a successful verification.
// The envelope is signed if key is not nil.
func NewAttestationEnvelope(meta *nep330.ContractSourceMetadata, result *VerificationResult, key *in_toto.Key) (*provenance.Envelope, error) {
	if !result.Match {
		return nil, xerrors.Errorf("refusing to attest `%s`: checksum %s does not match expected %s", result.Artifact, result.Checksum, result.Expected)
	}
	bi := meta.BuildInfo
	if bi == nil {
		return nil, meta.Validate(nil)
	}

	pred := provenance.NewSLSAPredicate()
	pred.Builder = common.ProvenanceBuilder{
		ID: fmt.Sprintf("%s@%s", ProvenanceBuilderID, Version),
	}
	pred.BuildType = "https://github.com/near/NEPs/blob/master/neps/nep-0330.md"
	pred.Materials = []common.ProvenanceMaterial{
		{URI: bi.SourceCodeSnapshot, Digest: snapshotDigest(bi.SourceCodeSnapshot)},
	}
	if img, err := nep330.ParseImageReference(bi.BuildEnvironment); err == nil {
		pred.Materials = append(pred.Materials, common.ProvenanceMaterial{
			URI:    "docker://" + img.Image,
			Digest: common.DigestSet{img.Digest.Algorithm().String(): img.Digest.Encoded()},
		})
	}

	started, finished := result.Started, result.Finished
	pred.Metadata = &slsa.ProvenanceMetadata{
		BuildInvocationID: result.InvocationID,
		Completeness: slsa.ProvenanceComplete{
			Parameters:  true,
			Environment: true,
			Materials:   true,
		},
		Reproducible:    true,
		BuildStartedOn:  &started,
		BuildFinishedOn: &finished,
	}
	pred.Invocation = slsa.ProvenanceInvocation{
		ConfigSource: slsa.ConfigSource{
			URI:        bi.SourceCodeSnapshot,
			Digest:     snapshotDigest(bi.SourceCodeSnapshot),
			EntryPoint: bi.ContractPath,
		},
		Parameters: map[string]interface{}{
			"build_command": bi.BuildCommand,
		},
		Environment: map[string]interface{}{
			"build_environment": bi.BuildEnvironment,
			"env":               meta.DockerEnvArgs(),
		},
	}

	stmt := provenance.NewSLSAStatement()
	stmt.Subject = []in_toto.Subject{
		{
			Name:   filepath.Base(result.Artifact),
			Digest: common.DigestSet{"sha256": result.Checksum.Hex()},
		},
	}
	stmt.PredicateType = slsa.PredicateSLSAProvenance
	stmt.Predicate = pred

	payload, err := json.MarshalIndent(stmt, "", "  ")
	if err != nil {
		return nil, xerrors.Errorf("cannot marshal provenance for %s: %w", result.Artifact, err)
	}
	sigs := []interface{}{}
	if key != nil {
		sig, err := in_toto.GenerateSignature(payload, *key)
		if err != nil {
			return nil, xerrors.Errorf("cannot sign provenance for %s: %w", result.Artifact, err)
		}
		sigs = append(sigs, sig)
	}

	return &provenance.Envelope{
		PayloadType: in_toto.PayloadType,
		Payload:     base64.StdEncoding.EncodeToString(payload),
		Signatures:  sigs,
	}, nil
}

// snapshotDigest extracts the git revision of a `git+<url>?rev=<sha>` snapshot
func snapshotDigest(snapshot string) common.DigestSet {
	_, query, ok := strings.Cut(snapshot, "?")
	if !ok {
		return common.DigestSet{}
	}
	for _, kv := range strings.Split(query, "&") {
		if rev, found := strings.CutPrefix(kv, "rev="); found && rev != "" {
			return common.DigestSet{"sha1": rev}
		}
	}
	return common.DigestSet{}
}

// WriteAttestation adds the provenance of result to the JSONL bundle at fn. Entries already present are kept once.
func WriteAttestation(fn string, meta *nep330.ContractSourceMetadata, result *VerificationResult, key *in_toto.Key) error {
	env, err := NewAttestationEnvelope(meta, result, key)
	if err != nil {
		return err
	}

	bundle := NewAttestationBundle(io.Discard)
	if existing, err := os.Open(fn); err == nil {
		err = bundle.AddFromBundle(existing)
		existing.Close()
		if err != nil {
			return xerrors.Errorf("cannot read attestation bundle %s: %w", fn, err)
		}
	} else if !os.IsNotExist(err) {
		return xerrors.Errorf("cannot read attestation bundle %s: %w", fn, err)
	}

	if err := os.MkdirAll(filepath.Dir(fn), 0755); err != nil {
		return xerrors.Errorf("cannot create attestation directory: %w", err)
	}
	f, err := os.OpenFile(fn, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return xerrors.Errorf("cannot write attestation bundle %s: %w", fn, err)
	}
	defer f.Close()

	bundle.out = f
	prev := bundle.Len()
	if err := bundle.Add(env); err != nil {
		return xerrors.Errorf("cannot write attestation bundle %s: %w", fn, err)
	}
	log.WithField("path", fn).WithField("added", bundle.Len() > prev).Debug("wrote attestation bundle")
	return nil
}

// AttestationBundle represents an in-toto attestation bundle. See https://github.com/in-toto/attestation/blob/main/spec/bundle.md
// for more details.
type AttestationBundle struct {
	out  io.Writer
	keys map[string]struct{}
}

// NewAttestationBundle starts a bundle writing to out
func NewAttestationBundle(out io.Writer) *AttestationBundle {
	return &AttestationBundle{
		out:  out,
		keys: make(map[string]struct{}),
	}
}

// Add writes env as a single line, unless an identical entry was written before
func (a *AttestationBundle) Add(env *provenance.Envelope) error {
	line, err := json.Marshal(env)
	if err != nil {
		return err
	}
	line = append(line, '\n')

	key := lineKey(line)
	if _, exists := a.keys[key]; exists {
		return nil
	}
	if _, err := a.out.Write(line); err != nil {
		return err
	}
	a.keys[key] = struct{}{}
	return nil
}

// AddFromBundle copies the entries of another bundle that aren't present yet
func (a *AttestationBundle) AddFromBundle(other io.Reader) error {
	reader := bufio.NewReader(other)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 && line[len(line)-1] != '\n' {
			line = append(line, '\n')
		}
		if len(strings.TrimSpace(string(line))) > 0 {
			key := lineKey(line)
			if _, exists := a.keys[key]; !exists {
				if _, werr := a.out.Write(line); werr != nil {
					return werr
				}
				a.keys[key] = struct{}{}
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Len is the number of unique entries in the bundle
func (a *AttestationBundle) Len() int { return len(a.keys) }

func lineKey(line []byte) string {
	sum := sha256.Sum256(line)
	return hex.EncodeToString(sum[:])
}
