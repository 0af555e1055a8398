package cmd

import (
	"fmt"
	"io"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
	"github.com/wasmrepro/wasmrepro/pkg/reprobuild"
)

// dockerCheckCmd represents the docker-check command
var dockerCheckCmd = &cobra.Command{
	Use:   "docker-check",
	Short: "Checks that docker can run containers and optionally pulls a build image",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		image, _ := cmd.Flags().GetString("image")
		return runDockerCheck(cmd.OutOrStdout(), image,
			reprobuild.WithQuiet(quiet),
			reprobuild.WithStdio(nil, cmd.ErrOrStderr(), cmd.ErrOrStderr()),
		)
	},
}

func init() {
	rootCmd.AddCommand(dockerCheckCmd)
	dockerCheckCmd.Flags().String("image", "", "build environment image to pull, e.g. sourcescan/cargo-near:0.13.4-rust-1.85.0@sha256:<digest>")
}

func runDockerCheck(out io.Writer, image string, opts ...reprobuild.RunOption) error {
	if err := reprobuild.DockerSanityCheck(opts...); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s docker is able to run containers\n", color.Green.Render("✔"))

	if image == "" {
		return nil
	}
	if _, err := nep330.ParseImageReference(image); err != nil {
		return err
	}
	if err := reprobuild.PullImage(image, opts...); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s pulled %s\n", color.Green.Render("✔"), image)
	return nil
}
