package cmd

import (
	"fmt"
	"io"

	"github.com/gookit/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <metadata.json>",
	Short: "Checks contract source metadata without building anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		whitelist, err := loadWhitelist(cmd)
		if err != nil {
			return err
		}
		return runValidate(cmd.OutOrStdout(), args[0], whitelist)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addWhitelistFlag(validateCmd)
}

func runValidate(out io.Writer, fn string, whitelist *nep330.Whitelist) error {
	meta, err := nep330.LoadMetadata(fn)
	if err != nil {
		return err
	}
	if err := meta.Validate(whitelist); err != nil {
		return err
	}
	for _, w := range meta.RevisionWarnings() {
		log.Warn(w)
	}

	rev, ok := meta.SchemaRevision()
	if !ok {
		rev = "unknown"
	}
	fmt.Fprintf(out, "%s %s (nep330 %s, image %s)\n", color.Green.Render("✔"), fn, rev, meta.BuildInfo.BuildEnvironment)
	return nil
}
