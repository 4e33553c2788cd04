// Package cli implementa catalogctl: migraciones y carga masiva del catálogo.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	"github.com/jhoicas/Catalogo-api/pkg/config"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// Variables de build inyectadas con ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// Migrator aplica o revierte el esquema. Lo implementan las funciones del paquete postgres.
type Migrator interface {
	Up(dbURL string) error
	Down(dbURL string, steps int) error
	Status(dbURL string) (version uint, dirty bool, err error)
}

// Runtime dependencias compartidas por los comandos.
type Runtime struct {
	Config   *config.Config
	Log      *logger.Logger
	Migrator Migrator
	// OpenRegistry abre el store configurado; close libera la conexión.
	OpenRegistry func(ctx context.Context) (reg *catalog.Registry, close func(), err error)
	Out          io.Writer
}

func (rt *Runtime) out() io.Writer {
	if rt.Out == nil {
		return os.Stdout
	}
	return rt.Out
}

// NewRootCommand crea el comando raíz con sus subcomandos.
func NewRootCommand(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Operaciones del catálogo: migraciones e importación masiva",
		Version:       fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newMigrateCmd(rt), newImportCmd(rt))
	return cmd
}

// Execute ejecuta el comando raíz con los argumentos del proceso.
func Execute(ctx context.Context, rt *Runtime) error {
	return NewRootCommand(rt).ExecuteContext(ctx)
}

// printJSON escribe v indentado en la salida del runtime.
func (rt *Runtime) printJSON(v any) error {
	enc := json.NewEncoder(rt.out())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
