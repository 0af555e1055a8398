package provutil

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"os"

	"github.com/in-toto/in-toto-golang/in_toto"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
	"sigs.k8s.io/bom/pkg/provenance"
)

// AccessAttestationBundle calls handler for every envelope in the JSONL attestation bundle at fn
func AccessAttestationBundle(fn string, handler func(env *provenance.Envelope) error) (err error) {
	defer func() {
		if err != nil {
			err = xerrors.Errorf("error accessing attestation bundle %s: %w", fn, err)
		}
	}()

	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()

	return DecodeBundle(f, handler)
}

// DecodeBundle calls handler for every envelope read from bundle
func DecodeBundle(bundle io.Reader, handler func(env *provenance.Envelope) error) error {
	dec := json.NewDecoder(bundle)
	for dec.More() {
		var env provenance.Envelope
		err := dec.Decode(&env)
		if err != nil {
			return err
		}

		err = handler(&env)
		if err != nil {
			return err
		}
	}
	return nil
}

// DecodeStatement extracts the in-toto statement of an envelope. It returns false for payloads of other types.
func DecodeStatement(env *provenance.Envelope) (*provenance.Statement, bool, error) {
	if env.PayloadType != in_toto.PayloadType {
		log.Warnf("only supporting %s payloads, not %s - skipping", in_toto.PayloadType, env.PayloadType)
		return nil, false, nil
	}

	raw, err := base64.StdEncoding.DecodeString(env.Payload)
	if err != nil {
		return nil, false, xerrors.Errorf("cannot decode attestation payload: %w", err)
	}
	stmt := provenance.NewSLSAStatement()
	err = json.Unmarshal(raw, stmt)
	if err != nil {
		return nil, false, xerrors.Errorf("cannot decode attestation statement: %w", err)
	}
	return stmt, true, nil
}

// Assert runs assertions against every entry of the bundle at fn and returns all violations
func Assert(fn string, assertions Assertions) (failures []Violation, entries int, err error) {
	err = AccessAttestationBundle(fn, func(env *provenance.Envelope) error {
		entries++
		failures = append(failures, assertions.AssertEnvelope(env)...)

		stmt, ok, err := DecodeStatement(env)
		if err != nil || !ok {
			return err
		}
		failures = append(failures, assertions.AssertStatement(stmt)...)
		return nil
	})
	return failures, entries, err
}

// payloadBytes returns the signed bytes of an envelope, i.e. its decoded payload
func payloadBytes(env *provenance.Envelope) []byte {
	raw, err := base64.StdEncoding.DecodeString(env.Payload)
	if err != nil {
		return nil
	}
	return raw
}
