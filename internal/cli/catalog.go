package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ListingScanner/internal/domain"
	"ListingScanner/internal/namespace"
)

func newNamespacesCmd(rt *runtime) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "namespaces",
		Short: "List stored namespaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sources := domain.Sources()
			if source != "" {
				s, err := domain.ParseSource(source)
				if err != nil {
					return err
				}
				sources = []domain.Source{s}
			}

			application, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			for _, s := range sources {
				ids, err := application.Catalog().ListNamespaces(cmd.Context(), s)
				if err != nil {
					return err
				}
				for _, id := range ids {
					cmd.Println(id)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&source, "source", "s", "", "only this source (default all)")
	return cmd
}

func newShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <namespace>",
		Short: "Print the listings of a namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			application, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			meta, err := application.Catalog().Describe(cmd.Context(), id)
			if err != nil {
				return err
			}
			records, err := application.Catalog().ReadAll(cmd.Context(), id)
			if err != nil {
				return err
			}

			cmd.Printf("%s (%s): %d listings\n", meta.ID, meta.Descriptor(), len(records))
			if len(records) == 0 {
				return nil
			}

			source, _ := namespace.SourceOf(id)
			columns := domain.Columns(source)
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, strings.ToUpper(strings.Join(columns, "\t")))
			for _, rec := range records {
				fmt.Fprintln(tw, strings.Join(rec.Row(source), "\t"))
			}
			return tw.Flush()
		},
	}
}

func newExportCmd(rt *runtime) *cobra.Command {
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export <namespace>",
		Short: "Export a namespace to CSV or XLSX",
		Long: `Writes every listing of the namespace with a header row in the fixed
column order of its source. --out - writes to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			application, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			exporter, err := application.Exporter(format)
			if err != nil {
				return err
			}

			if out == "" {
				out = id + "." + exporter.Format()
			}

			if out == "-" {
				_, err := application.Catalog().Export(cmd.Context(), id, exporter, cmd.OutOrStdout())
				return err
			}

			// Refuse unknown namespaces before creating the file.
			if _, err := application.Catalog().Describe(cmd.Context(), id); err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			n, err := application.Catalog().Export(cmd.Context(), id, exporter, f)
			if cerr := f.Close(); err == nil && cerr != nil {
				err = fmt.Errorf("close %s: %w", out, cerr)
			}
			if err != nil {
				return err
			}

			cmd.Printf("exported %d listings to %s\n", n, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "export format: csv or xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default <namespace>.<format>)")
	return cmd
}
