package nep330

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"

	"github.com/wasmrepro/wasmrepro/pkg/nep330/schema"
)

const (
	metadataSchemaName  = "contract-source-metadata.schema.json"
	whitelistSchemaName = "whitelist.schema.json"
)

// ParseMetadata checks a JSON document against the contract source metadata schema and decodes it.
// The document is only checked structurally, use Validate for the build recipe rules.
func ParseMetadata(data []byte) (*ContractSourceMetadata, error) {
	if err := validateAgainstSchema(metadataSchemaName, schema.ContractSourceMetadataSchema, data); err != nil {
		return nil, err
	}

	var res ContractSourceMetadata
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, &ValidationError{Kind: KindInvalidDocument, Message: "cannot decode contract source metadata", Cause: err}
	}
	return &res, nil
}

// LoadMetadata reads and parses a contract source metadata JSON file
func LoadMetadata(fn string) (*ContractSourceMetadata, error) {
	fc, err := os.ReadFile(fn)
	if err != nil {
		return nil, xerrors.Errorf("cannot read contract source metadata: %w", err)
	}
	res, err := ParseMetadata(fc)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", fn, err)
	}
	return res, nil
}

// ParseWhitelist checks a JSON document against the whitelist schema and decodes it
func ParseWhitelist(data []byte) (Whitelist, error) {
	if err := validateAgainstSchema(whitelistSchemaName, schema.WhitelistSchema, data); err != nil {
		return nil, err
	}

	var res Whitelist
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, &ValidationError{Kind: KindInvalidDocument, Message: "cannot decode whitelist", Cause: err}
	}
	return res, nil
}

// LoadWhitelist reads a whitelist file. Files ending in .yaml or .yml are read as YAML, everything else as JSON.
func LoadWhitelist(fn string) (Whitelist, error) {
	fc, err := os.ReadFile(fn)
	if err != nil {
		return nil, xerrors.Errorf("cannot read whitelist: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fn))
	if ext == ".yaml" || ext == ".yml" {
		var doc interface{}
		if err := yaml.Unmarshal(fc, &doc); err != nil {
			return nil, xerrors.Errorf("%s: cannot parse YAML: %w", fn, err)
		}
		fc, err = json.Marshal(doc)
		if err != nil {
			return nil, xerrors.Errorf("%s: cannot convert YAML whitelist: %w", fn, err)
		}
	}

	res, err := ParseWhitelist(fc)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", fn, err)
	}
	log.WithField("whitelist", fn).WithField("entries", len(res)).Debug("loaded whitelist")
	return res, nil
}

func validateAgainstSchema(name string, schemaBytes, data []byte) error {
	comp := jsonschema.NewCompiler()
	if err := comp.AddResource(name, bytes.NewReader(schemaBytes)); err != nil {
		return xerrors.Errorf("loading schema %q: %w", name, err)
	}
	sch, err := comp.Compile(name)
	if err != nil {
		return xerrors.Errorf("compiling schema %q: %w", name, err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ValidationError{Kind: KindInvalidDocument, Message: "document is not valid JSON", Cause: err}
	}
	if err := sch.Validate(doc); err != nil {
		return &ValidationError{Kind: KindInvalidDocument, Message: "document does not match " + name, Cause: err}
	}
	return nil
}
