//go:build tools

// Package tools fija las versiones de los generadores usados con go generate.
package tools

import (
	_ "github.com/swaggo/swag/cmd/swag"
)
