//go:build tools

// Herramientas de desarrollo fijadas en go.mod: `go run github.com/swaggo/swag/cmd/swag init -g cmd/api/main.go`.
package tools

import (
	_ "github.com/swaggo/swag/cmd/swag"
)
