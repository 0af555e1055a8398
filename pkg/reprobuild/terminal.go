package reprobuild

import (
	"os"

	log "github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/wasmrepro/wasmrepro/pkg/nep330"
)

// interactive decides whether docker should allocate an interactive terminal
func interactive(stdin *os.File) bool {
	if stdin == nil {
		return false
	}
	isTerminal := term.IsTerminal(int(stdin.Fd()))
	log.WithField("tty", isTerminal).Debug("checked whether input device is a tty")
	if !isTerminal {
		return false
	}
	_, disabled := os.LookupEnv(nep330.EnvServerDisableInteractive)
	return !disabled
}
