package cmd

import (
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/in-toto/in-toto-golang/in_toto"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"

	"github.com/wasmrepro/wasmrepro/pkg/provutil"
	"github.com/wasmrepro/wasmrepro/pkg/reprobuild"
)

// provenanceAssertCmd represents the provenance assert command
var provenanceAssertCmd = &cobra.Command{
	Use:   "assert <bundle.jsonl>",
	Short: "Makes assertions about the entries of an attestation bundle written by verify",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var assertions provutil.Assertions
		if keyPath, _ := cmd.Flags().GetString("signed-with"); keyPath != "" {
			var key in_toto.Key
			err := key.LoadKeyDefaults(keyPath)
			if err != nil {
				return xerrors.Errorf("cannot load key from %s: %w", keyPath, err)
			}
			assertions = append(assertions, provutil.AssertSignedWith(key))
		}
		if do, _ := cmd.Flags().GetBool("verified-by-wasmrepro"); do {
			assertions = append(assertions, provutil.AssertVerifiedByUs)
		}
		if ver, _ := cmd.Flags().GetString("verifier-version"); ver != "" {
			assertions = append(assertions, provutil.AssertVerifierVersion(ver))
		}
		if do, _ := cmd.Flags().GetBool("git-only"); do {
			assertions = append(assertions, provutil.AssertGitOnly)
		}
		if subject, _ := cmd.Flags().GetString("subject"); subject != "" {
			sum, err := reprobuild.ParseSHA256Checksum(subject)
			if err != nil {
				return err
			}
			assertions = append(assertions, provutil.AssertSubject(sum))
		}

		return runProvenanceAssert(cmd.OutOrStdout(), args[0], assertions)
	},
}

func init() {
	provenanceAssertCmd.Flags().String("signed-with", "", "ensure that all entries in the attestation bundle are signed and valid under the given key")
	provenanceAssertCmd.Flags().Bool("verified-by-wasmrepro", false, "ensure that all entries in the attestation bundle are issued by wasmrepro")
	provenanceAssertCmd.Flags().String("verifier-version", "", "ensure that all entries in the attestation bundle are issued by a specific wasmrepro version")
	provenanceAssertCmd.Flags().Bool("git-only", false, "ensure that all entries in the attestation bundle are built from a pinned Git revision")
	provenanceAssertCmd.Flags().String("subject", "", "ensure that all entries in the attestation bundle attest the given artifact checksum")

	provenanceCmd.AddCommand(provenanceAssertCmd)
}

func runProvenanceAssert(out io.Writer, fn string, assertions provutil.Assertions) error {
	failures, entries, err := provutil.Assert(fn, assertions)
	if err != nil {
		return xerrors.Errorf("cannot assert attestation bundle: %w", err)
	}

	if len(failures) != 0 {
		for _, f := range failures {
			log.Error(f.String())
		}
		return xerrors.Errorf("%d of %d assertions failed", len(failures), entries*len(assertions))
	}
	fmt.Fprintf(out, "%s %d entries satisfy %d assertions\n", color.Green.Render("✔"), entries, len(assertions))
	return nil
}
