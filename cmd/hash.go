package cmd

import (
	"github.com/spf13/cobra"

	"github.com/wasmrepro/wasmrepro/pkg/prettyprint"
	"github.com/wasmrepro/wasmrepro/pkg/reprobuild"
)

type hashResult struct {
	Path   string `json:"path" yaml:"path"`
	Base58 string `json:"base58" yaml:"base58"`
	Hex    string `json:"hex" yaml:"hex"`
	Digest string `json:"digest" yaml:"digest"`
}

// hashCmd represents the hash command
var hashCmd = &cobra.Command{
	Use:   "hash <file>",
	Short: "Prints the SHA-256 checksum of a file the way verify compares it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := getWriterFromFlags(cmd)
		if err != nil {
			return err
		}
		return runHash(w, args[0])
	},
}

func init() {
	rootCmd.AddCommand(hashCmd)
	addFormatFlags(hashCmd)
}

func runHash(w *prettyprint.Writer, fn string) error {
	sum, err := reprobuild.ComputeHash(fn)
	if err != nil {
		return err
	}

	if w.Format == prettyprint.TemplateFormat && w.FormatString == "" {
		w.FormatString = "{{ .Base58 }}\t{{ .Path }}\n"
	}
	return w.Write(hashResult{
		Path:   fn,
		Base58: sum.String(),
		Hex:    sum.Hex(),
		Digest: sum.Digest().String(),
	})
}
