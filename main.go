package main

import (
	"github.com/wasmrepro/wasmrepro/cmd"
)

func main() {
	cmd.Execute()
}
