package bake

import _ "embed"

// Version is the release of the bake module.
//
//go:embed VERSION
var Version string
