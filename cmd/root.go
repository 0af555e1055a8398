package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/gookit/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
	"github.com/wasmrepro/wasmrepro/pkg/prettyprint"
	"github.com/wasmrepro/wasmrepro/pkg/reprobuild"
)

const (
	// EnvvarWhitelist names the environment variable pointing to the default whitelist file
	EnvvarWhitelist = "WASMREPRO_WHITELIST"
)

var (
	verbose bool
	quiet   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wasmrepro",
	Short: "Verifies NEAR contract WASM by rebuilding it reproducibly",
	Long: color.Render(`<light_yellow>wasmrepro proves that a contract WASM was built from its declared sources.</> It reads NEP-330
contract source metadata, re-executes the declared build command in the declared docker image over a
checkout of the declared source snapshot and compares the hash of the result.

<white>Configuration</>
wasmrepro is configured through flags and the following environment variables:
             <light_blue>WASMREPRO_DOCKER</>  Docker executable to use. Defaults to "docker".
          <light_blue>WASMREPRO_WHITELIST</>  Whitelist file (JSON or YAML) enforced by validate and verify unless --whitelist is given.
                        <light_blue>CARGO</>  Cargo executable used to locate artifacts of legacy metadata without output_wasm_path.
  <light_blue>CARGO_NEAR_SERVER_BUILD_DISABLE_INTERACTIVE</>  When set, docker never gets an interactive terminal.
`),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			log.SetLevel(log.WarnLevel)
		}
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enables verbose logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "captures docker output and only prints it on failure")
}

// reportError prints err and, for failed external programs, the output we captured and a hint how to fix it
func reportError(out *os.File, err error) {
	fmt.Fprintln(out, color.Red.Render(err.Error()))

	var berr *reprobuild.BuildError
	if !errors.As(err, &berr) {
		var verr *nep330.ValidationError
		if errors.As(err, &verr) && verr.Field != "" {
			fmt.Fprintf(out, "offending field: %s\n", color.Cyan.Render(verr.Field))
		}
		return
	}
	if berr.Output != "" {
		fmt.Fprintln(out, berr.Output)
	}
	if status := berr.CommandStatus(); status != "" {
		fmt.Fprintln(out, status)
	}
	switch {
	case berr.ExecutableMissing:
		fmt.Fprintln(out, color.Yellow.Render("Please make sure `docker` (and `cargo` for legacy metadata) is installed. See https://docs.docker.com/engine/install/"))
	case berr.PermissionDenied:
		fmt.Fprintln(out, color.Yellow.Render("Please make sure the current user may run docker. See https://docs.docker.com/engine/install/linux-postinstall/"))
	}
}

func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", string(prettyprint.TemplateFormat), "the output format (template, json, yaml)")
	cmd.Flags().String("format-string", "", "format string to use, e.g. when using the template format")
}

func getWriterFromFlags(cmd *cobra.Command) (*prettyprint.Writer, error) {
	name, _ := cmd.Flags().GetString("format")
	format, err := prettyprint.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	formatString, _ := cmd.Flags().GetString("format-string")
	return &prettyprint.Writer{
		Out:          cmd.OutOrStdout(),
		Format:       format,
		FormatString: formatString,
	}, nil
}

// loadWhitelist reads the whitelist given by flag or environment. It returns nil if there is none.
func loadWhitelist(cmd *cobra.Command) (*nep330.Whitelist, error) {
	fn, _ := cmd.Flags().GetString("whitelist")
	if fn == "" {
		fn = os.Getenv(EnvvarWhitelist)
	}
	if fn == "" {
		return nil, nil
	}

	wl, err := nep330.LoadWhitelist(fn)
	if err != nil {
		return nil, err
	}
	log.WithField("whitelist", fn).WithField("entries", len(wl)).Debug("loaded whitelist")
	return &wl, nil
}

func addWhitelistFlag(cmd *cobra.Command) {
	cmd.Flags().String("whitelist", "", "whitelist of allowed build images and command prefixes (JSON or YAML, env: "+EnvvarWhitelist+")")
}
