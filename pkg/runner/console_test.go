package runner

import "github.com/aretw0/bake/pkg/domain"

var (
	_ domain.Console = (*TextConsole)(nil)
	_ domain.Console = (*JSONConsole)(nil)
)
