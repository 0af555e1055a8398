package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/gookit/color"
	"github.com/in-toto/in-toto-golang/in_toto"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
	"github.com/wasmrepro/wasmrepro/pkg/reprobuild"
)

// errChecksumMismatch is returned when the rebuilt artifact differs from the expected one
var errChecksumMismatch = fmt.Errorf("checksum mismatch: the artifact is not reproducible from the declared sources")

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify <metadata.json> --expected <checksum>",
	Short: "Rebuilds a contract and compares the checksum of the result",
	Long: `Rebuilds a contract from a checkout of its source snapshot and compares the checksum of the
resulting WASM to the expected one. The expected checksum is either base58 encoded, as NEAR prints
code hashes, or an OCI digest (sha256:<hex>).

Example:
  wasmrepro verify contract-meta.json --workdir ./checkout --expected 4H7kz...
  wasmrepro verify contract-meta.json -w ./checkout --expected sha256:2cf2... --attestation out.provenance.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workdir, _ := cmd.Flags().GetString("workdir")
		expected, _ := cmd.Flags().GetString("expected")
		skipChecks, _ := cmd.Flags().GetBool("skip-docker-checks")
		attestation, _ := cmd.Flags().GetString("attestation")
		keyPath, _ := cmd.Flags().GetString("attestation-key")

		whitelist, err := loadWhitelist(cmd)
		if err != nil {
			return err
		}
		opts, err := getRunOptions(cmd)
		if err != nil {
			return err
		}
		opts = append(opts,
			reprobuild.WithWhitelist(whitelist),
			reprobuild.WithDockerChecks(!skipChecks),
		)
		var key *in_toto.Key
		if keyPath != "" {
			key = &in_toto.Key{}
			if err := key.LoadKeyDefaults(keyPath); err != nil {
				return xerrors.Errorf("cannot load attestation key from %s: %w", keyPath, err)
			}
		}
		return runVerify(cmd.OutOrStdout(), args[0], workdir, expected, attestation, key, opts...)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	addBuildFlags(verifyCmd)
	addWhitelistFlag(verifyCmd)
	verifyCmd.Flags().String("expected", "", "expected checksum of the artifact (base58 or sha256:<hex>)")
	verifyCmd.Flags().Bool("skip-docker-checks", false, "don't check docker and pull the image before building")
	verifyCmd.Flags().String("attestation", "", "append a SLSA provenance attestation of a successful verification to this JSONL bundle")
	verifyCmd.Flags().String("attestation-key", "", "PEM private key the attestation is signed with")
	_ = verifyCmd.MarkFlagRequired("expected")
}

func runVerify(out io.Writer, fn, workdir, expected, attestation string, key *in_toto.Key, opts ...reprobuild.RunOption) error {
	meta, err := nep330.LoadMetadata(fn)
	if err != nil {
		return err
	}

	res, err := reprobuild.Verify(meta, workdir, expected, opts...)
	if err != nil {
		return err
	}

	if !res.Match {
		fmt.Fprintf(out, "%s %s\n  expected: %s\n  actual:   %s\n", color.Red.Render("✘"), res.Artifact, res.Expected, res.Checksum)
		return errChecksumMismatch
	}
	fmt.Fprintf(out, "%s %s %s (%s)\n", color.Green.Render("✔"), res.Artifact, res.Checksum, res.Duration().Round(time.Millisecond))

	if attestation == "" {
		return nil
	}
	if err := reprobuild.WriteAttestation(attestation, meta, res, key); err != nil {
		return err
	}
	log.WithField("path", attestation).Info("wrote attestation")
	return nil
}
