package main

import (
	_ "embed"

	"github.com/mgfn/skycast/internal/app"
	"github.com/mgfn/skycast/internal/config"
)

//go:embed application.yaml
var embeddedConfig []byte

func main() {
	app.New(config.EmbeddedConfig(embeddedConfig)).Run()
}
