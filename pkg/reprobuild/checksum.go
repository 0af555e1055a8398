package reprobuild

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/opencontainers/go-digest"
	log "github.com/sirupsen/logrus"
	"golang.org/x/xerrors"
)

// SHA256Checksum is the content hash of a build artifact
type SHA256Checksum struct {
	Hash []byte
}

// ComputeHash hashes the full contents of the file at path
func ComputeHash(path string) (SHA256Checksum, error) {
	f, err := os.Open(path)
	if err != nil {
		return SHA256Checksum{}, ioError(path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return SHA256Checksum{}, ioError(path, err)
	}

	res := SHA256Checksum{Hash: h.Sum(nil)}
	log.WithFields(log.Fields{"path": path, "size": n, "sha256": res.String()}).Debug("computed artifact hash")
	return res, nil
}

func ioError(path string, err error) error {
	return &BuildError{
		Type:     ErrorTypeIO,
		Message:  fmt.Sprintf("cannot read `%s`", path),
		Path:     path,
		ExitCode: -1,
		Cause:    err,
	}
}

// String encodes the hash as base58, the way NEAR presents code hashes
func (c SHA256Checksum) String() string {
	return base58.Encode(c.Hash)
}

// Hex encodes the hash as lowercase hex
func (c SHA256Checksum) Hex() string {
	return hex.EncodeToString(c.Hash)
}

// Digest returns the hash as an OCI content digest
func (c SHA256Checksum) Digest() digest.Digest {
	return digest.NewDigestFromEncoded(digest.SHA256, c.Hex())
}

// Equal compares two checksums
func (c SHA256Checksum) Equal(other SHA256Checksum) bool {
	return len(c.Hash) == sha256.Size && bytes.Equal(c.Hash, other.Hash)
}

// Matches reports whether c equals the textual checksum expected, see ParseSHA256Checksum
func (c SHA256Checksum) Matches(expected string) (bool, error) {
	other, err := ParseSHA256Checksum(expected)
	if err != nil {
		return false, err
	}
	return c.Equal(other), nil
}

// MarshalText implements encoding.TextMarshaler
func (c SHA256Checksum) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *SHA256Checksum) UnmarshalText(text []byte) error {
	res, err := ParseSHA256Checksum(string(text))
	if err != nil {
		return err
	}
	*c = res
	return nil
}

// ParseSHA256Checksum accepts either the base58 encoding of a checksum or an OCI digest `sha256:<hex>`
func ParseSHA256Checksum(s string) (SHA256Checksum, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, ":") {
		dgst, err := digest.Parse(s)
		if err != nil {
			return SHA256Checksum{}, xerrors.Errorf("invalid checksum digest `%s`: %w", s, err)
		}
		if dgst.Algorithm() != digest.SHA256 {
			return SHA256Checksum{}, xerrors.Errorf("unsupported checksum algorithm `%s`", dgst.Algorithm())
		}
		raw, err := hex.DecodeString(dgst.Encoded())
		if err != nil {
			return SHA256Checksum{}, xerrors.Errorf("invalid checksum digest `%s`: %w", s, err)
		}
		return SHA256Checksum{Hash: raw}, nil
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return SHA256Checksum{}, xerrors.Errorf("invalid base58 checksum `%s`: %w", s, err)
	}
	if len(raw) != sha256.Size {
		return SHA256Checksum{}, xerrors.Errorf("checksum `%s` decodes to %d bytes, expected %d", s, len(raw), sha256.Size)
	}
	return SHA256Checksum{Hash: raw}, nil
}
