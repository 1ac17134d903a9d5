package main

import (
	"embed"
	"io/fs"
	"log"

	"github.com/ReEnvision-AI/focus/app/lifecycle"
)

// Compile with the following to get rid of the cmd popup on windows
// go build -ldflags="-H windowsgui"

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	dist, err := fs.Sub(assets, "frontend/dist")
	if err != nil {
		log.Fatalf("missing frontend assets: %s", err)
	}
	lifecycle.Run(dist)
}
