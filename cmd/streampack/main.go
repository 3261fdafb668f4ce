package main

import (
	_ "streampack/internal/command/encoders"
	_ "streampack/internal/command/probe"
	_ "streampack/internal/command/process"
	_ "streampack/internal/command/purge"
	"streampack/internal/command/root"
	_ "streampack/internal/command/status"
	_ "streampack/internal/command/thumbnail"
	_ "streampack/internal/command/worker"
)

func main() {
	root.Execute()
}
