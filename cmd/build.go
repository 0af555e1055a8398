package cmd

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
	"github.com/wasmrepro/wasmrepro/pkg/reprobuild"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build <metadata.json>",
	Short: "Rebuilds a contract in its declared build environment and prints the artifact path",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		workdir, _ := cmd.Flags().GetString("workdir")
		opts, err := getRunOptions(cmd)
		if err != nil {
			return err
		}
		return runBuild(cmd.OutOrStdout(), args[0], workdir, opts...)
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
	addBuildFlags(buildCmd)
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("workdir", "w", ".", "checkout of the source code snapshot")
	cmd.Flags().StringArray("docker-arg", nil, "additional argument passed to `docker run` before the image (can be repeated)")
	cmd.Flags().Bool("no-locked", false, "run `cargo metadata` without --locked when locating legacy artifacts")
}

func getRunOptions(cmd *cobra.Command) ([]reprobuild.RunOption, error) {
	dockerArgs, err := cmd.Flags().GetStringArray("docker-arg")
	if err != nil {
		return nil, err
	}
	noLocked, err := cmd.Flags().GetBool("no-locked")
	if err != nil {
		return nil, err
	}
	log.WithField("dockerArgs", dockerArgs).WithField("noLocked", noLocked).Debug("configuring build")

	return []reprobuild.RunOption{
		reprobuild.WithAdditionalDockerArgs(dockerArgs),
		reprobuild.WithNoLocked(noLocked),
		reprobuild.WithQuiet(quiet),
		reprobuild.WithStdio(os.Stdin, cmd.ErrOrStderr(), cmd.ErrOrStderr()),
	}, nil
}

func runBuild(out io.Writer, fn, workdir string, opts ...reprobuild.RunOption) error {
	meta, err := nep330.LoadMetadata(fn)
	if err != nil {
		return err
	}
	if err := meta.Validate(nil); err != nil {
		return err
	}

	artifact, err := reprobuild.Run(meta, workdir, opts...)
	if err != nil {
		return err
	}
	log.WithField("artifact", artifact).Debug("build finished")
	fmt.Fprintln(out, artifact)
	return nil
}
