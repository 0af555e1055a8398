// Package testutil materializes source checkouts, metadata files and stand-in tools for tests.
package testutil

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
)

// MetadataFilename is the name the metadata file is materialized under
const MetadataFilename = "contract-meta.json"

// Setup describes a checkout to verify
type Setup struct {
	Metadata nep330.ContractSourceMetadata `yaml:"metadata"`
	// Files are written into the checkout, keyed by their slash separated relative path.
	Files map[string]string `yaml:"files"`
	// Tools are shell scripts standing in for external programs like docker or cargo, keyed by name.
	Tools map[string]string `yaml:"tools"`
}

// Checkout is a materialized Setup
type Checkout struct {
	Root         string
	MetadataFile string
	Workdir      string
	Tools        map[string]string
}

// LoadFromYAML loads a checkout setup from a YAML file
func LoadFromYAML(in io.Reader) (*Setup, error) {
	fc, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}

	var res Setup
	err = yaml.Unmarshal(fc, &res)
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// Materialize writes the setup below root
func (s Setup) Materialize(root string) (res *Checkout, err error) {
	res = &Checkout{
		Root:         root,
		MetadataFile: filepath.Join(root, MetadataFilename),
		Workdir:      filepath.Join(root, "checkout"),
		Tools:        make(map[string]string, len(s.Tools)),
	}

	fc, err := json.MarshalIndent(s.Metadata, "", "  ")
	if err != nil {
		return nil, err
	}
	err = os.WriteFile(res.MetadataFile, fc, 0644)
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(res.Workdir, 0755)
	if err != nil {
		return nil, err
	}
	for fn, content := range s.Files {
		dst := filepath.Join(res.Workdir, filepath.FromSlash(fn))
		err = os.MkdirAll(filepath.Dir(dst), 0755)
		if err != nil {
			return nil, err
		}
		err = os.WriteFile(dst, []byte(content), 0644)
		if err != nil {
			return nil, err
		}
	}

	toolDir := filepath.Join(root, "bin")
	err = os.MkdirAll(toolDir, 0755)
	if err != nil {
		return nil, err
	}
	for name, script := range s.Tools {
		dst := filepath.Join(toolDir, name)
		err = os.WriteFile(dst, []byte("#!/bin/sh\n"+script), 0755)
		if err != nil {
			return nil, err
		}
		res.Tools[name] = dst
	}

	return res, nil
}
