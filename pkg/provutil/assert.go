package provutil

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/in-toto/in-toto-golang/in_toto"
	log "github.com/sirupsen/logrus"
	"sigs.k8s.io/bom/pkg/provenance"

	"github.com/wasmrepro/wasmrepro/pkg/reprobuild"
)

// Assertion checks a property of attestation bundle entries
type Assertion struct {
	Name        string
	Description string
	Run         func(stmt *provenance.Statement) []Violation
	RunEnvelope func(env *provenance.Envelope) []Violation
}

// Violation is a failed assertion
type Violation struct {
	Assertion *Assertion
	Statement *provenance.Statement
	Desc      string
}

func (v Violation) String() string {
	if v.Statement == nil {
		return fmt.Sprintf("failed %s: %s", v.Assertion.Name, v.Desc)
	}

	var subject string
	if len(v.Statement.Subject) > 0 {
		subject = v.Statement.Subject[0].Name
	}
	return fmt.Sprintf("%s (%s) failed %s: %s", subject, v.Statement.Predicate.Invocation.ConfigSource.EntryPoint, v.Assertion.Name, v.Desc)
}

// Assertions is a set of assertions run together
type Assertions []*Assertion

// AssertEnvelope runs all envelope assertions
func (a Assertions) AssertEnvelope(env *provenance.Envelope) (failed []Violation) {
	for _, as := range a {
		if as.RunEnvelope == nil {
			continue
		}

		res := as.RunEnvelope(env)
		for i := range res {
			res[i].Assertion = as
		}
		failed = append(failed, res...)
	}
	return
}

// AssertStatement runs all statement assertions
func (a Assertions) AssertStatement(stmt *provenance.Statement) (failed []Violation) {
	// we must not keep a reference to stmt around - it will change for each invocation
	s := *stmt
	for _, as := range a {
		if as.Run == nil {
			continue
		}

		res := as.Run(stmt)
		for i := range res {
			res[i].Statement = &s
			res[i].Assertion = as
		}
		failed = append(failed, res...)
	}
	return
}

// AssertVerifiedByUs ensures all entries were issued by this verifier
var AssertVerifiedByUs = &Assertion{
	Name:        "verified-by-wasmrepro",
	Description: "ensures all bundle entries have been issued by wasmrepro",
	Run: func(stmt *provenance.Statement) []Violation {
		if strings.HasPrefix(stmt.Predicate.Builder.ID, reprobuild.ProvenanceBuilderID) {
			return nil
		}

		return []Violation{
			{Desc: "was not verified using wasmrepro"},
		}
	},
}

// AssertVerifierVersion ensures entries issued by this verifier were issued by the given version
func AssertVerifierVersion(version string) *Assertion {
	return &Assertion{
		Name:        "verifier-version",
		Description: "ensures all bundle entries which have been issued by wasmrepro, used version " + version,
		Run: func(stmt *provenance.Statement) []Violation {
			if !strings.HasPrefix(stmt.Predicate.Builder.ID, reprobuild.ProvenanceBuilderID) {
				return nil
			}

			if stmt.Predicate.Builder.ID != reprobuild.ProvenanceBuilderID+"@"+version {
				return []Violation{{Desc: "was verified using wasmrepro version " + strings.TrimPrefix(stmt.Predicate.Builder.ID, reprobuild.ProvenanceBuilderID+"@")}}
			}

			return nil
		},
	}
}

// AssertGitOnly ensures the source snapshot of every entry is a pinned Git revision
var AssertGitOnly = &Assertion{
	Name:        "git-only",
	Description: "ensures all subjects were built from a Git revision",
	Run: func(stmt *provenance.Statement) []Violation {
		for _, m := range stmt.Predicate.Materials {
			if strings.HasPrefix(m.URI, "docker://") {
				continue
			}
			if !strings.HasPrefix(m.URI, "git+") && !strings.HasPrefix(m.URI, "git://") {
				return []Violation{{Desc: "contains non-Git material, e.g. " + m.URI}}
			}
			if m.Digest["sha1"] == "" {
				return []Violation{{Desc: "Git material isn't pinned to a revision: " + m.URI}}
			}
		}
		return nil
	},
}

// AssertSubject ensures some entry attests the given artifact checksum
func AssertSubject(sum reprobuild.SHA256Checksum) *Assertion {
	return &Assertion{
		Name:        "subject",
		Description: "ensures all bundle entries attest the artifact " + sum.String(),
		Run: func(stmt *provenance.Statement) []Violation {
			for _, s := range stmt.Subject {
				if s.Digest["sha256"] == sum.Hex() {
					return nil
				}
			}
			return []Violation{{Desc: "does not attest " + sum.String()}}
		},
	}
}

// AssertSignedWith ensures all envelopes are signed with key
func AssertSignedWith(key in_toto.Key) *Assertion {
	return &Assertion{
		Name:        "signed-with",
		Description: "ensures all envelopes are signed with the given key",
		RunEnvelope: func(env *provenance.Envelope) []Violation {
			for _, s := range env.Signatures {
				raw, err := json.Marshal(s)
				if err != nil {
					return []Violation{{Desc: "assertion error: " + err.Error()}}
				}
				var sig in_toto.Signature
				err = json.Unmarshal(raw, &sig)
				if err != nil {
					return []Violation{{Desc: "assertion error: " + err.Error()}}
				}

				err = in_toto.VerifySignature(key, sig, payloadBytes(env))
				if err != nil {
					log.WithError(err).WithField("signature", sig.KeyID).Debug("signature does not match")
					continue
				}

				return nil
			}
			return []Violation{{Desc: "not signed with the given key"}}
		},
	}
}
