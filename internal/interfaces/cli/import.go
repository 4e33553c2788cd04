package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	domaincatalog "github.com/jhoicas/Catalogo-api/internal/domain/catalog"
)

func newImportCmd(rt *Runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Carga masiva de documentos del catálogo",
	}
	cmd.AddCommand(newImportTreeCmd(rt), newImportProductsCmd(rt))
	return cmd
}

// importOutput salida JSON de los comandos de importación.
type importOutput struct {
	Report   *catalog.ImportReport `json:"report"`
	Rejected []rowIssue            `json:"rejected,omitempty"`
}

func newImportTreeCmd(rt *Runtime) *cobra.Command {
	var (
		levelName string
		parentID  string
	)
	cmd := &cobra.Command{
		Use:   "tree FILE",
		Short: "Importa un árbol (YAML o JSON) a partir de un nivel",
		Long: "Importa documentos anidados. Cada documento puede traer sus hijos bajo la clave del nivel hijo.\n" +
			"Un code existente se actualiza; uno nuevo se crea.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reg, closeFn, err := rt.OpenRegistry(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			topology := reg.Topology()
			level := topology.Root().Name
			if levelName != "" {
				if level, err = topology.Parse(levelName); err != nil {
					return err
				}
			}
			d, _ := topology.Lookup(level)
			if !d.IsRoot() && parentID == "" {
				return fmt.Errorf("--parent es obligatorio para el nivel %s", level)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			docs, err := decodeTree(f, args[0], string(level))
			if err != nil {
				return err
			}
			report, err := catalog.NewImporter(reg, rt.Log).ImportTree(ctx, level, parentID, docs)
			if err != nil {
				return err
			}
			rt.Log.Info().Str("level", string(level)).Int("created", report.Created).
				Int("updated", report.Updated).Int("errors", len(report.Errors)).Msg("importación de árbol terminada")
			return rt.printJSON(importOutput{Report: report})
		},
	}
	cmd.Flags().StringVar(&levelName, "level", "", "nivel de los documentos del archivo (por defecto la raíz)")
	cmd.Flags().StringVar(&parentID, "parent", "", "id del padre cuando el nivel no es la raíz")
	return cmd
}

func newImportProductsCmd(rt *Runtime) *cobra.Command {
	var encoding string
	cmd := &cobra.Command{
		Use:   "products FILE.csv",
		Short: "Importa productos desde una hoja CSV",
		Long: "Columnas: code,specificationsCode,name_TW,name_EN,description_TW,description_EN.\n" +
			"El padre se resuelve por specificationsCode.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			r, err := textDecoder(f, encoding)
			if err != nil {
				return err
			}
			rows, rejected, err := decodeProductRows(r)
			if err != nil {
				return err
			}

			reg, closeFn, err := rt.OpenRegistry(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			importRows := make([]catalog.ImportRow, 0, len(rows))
			for _, row := range rows {
				importRows = append(importRows, catalog.ImportRow{
					ParentCode: row.SpecificationsCode,
					Doc:        productDocument(row),
				})
			}
			report, err := catalog.NewImporter(reg, rt.Log).ImportRows(ctx, domaincatalog.LevelProducts, importRows)
			if err != nil {
				return err
			}
			rt.Log.Info().Int("created", report.Created).Int("updated", report.Updated).
				Int("rejected", len(rejected)).Int("skipped", len(report.Skipped)).Msg("importación de productos terminada")
			return rt.printJSON(importOutput{Report: report, Rejected: rejected})
		},
	}
	cmd.Flags().StringVar(&encoding, "encoding", "utf-8", "codificación del archivo: utf-8|big5")
	return cmd
}
