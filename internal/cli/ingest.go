package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ListingScanner/internal/domain"
)

func newIngestCmd(rt *runtime) *cobra.Command {
	var (
		q    queryFlags
		file string
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a JSON batch of listings",
		Long: `Reads a JSON array of listing objects (at least "name" and "address")
from --file or stdin and merges it into the namespace of the query.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			query, err := q.query()
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open batch: %w", err)
				}
				defer f.Close()
				in = f
			}

			batch, err := decodeBatch(in)
			if err != nil {
				return err
			}

			application, err := rt.open(cmd)
			if err != nil {
				return err
			}
			defer application.Close()

			ns, res, err := application.Collector().Import(cmd.Context(), query, batch)
			if ns.ID != "" {
				printResult(cmd, ns, res)
			}
			return err
		},
	}

	q.bind(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON batch file (default stdin)")
	return cmd
}

// decodeBatch reads a JSON array of objects. Numbers stay json.Number so
// ratings and vote counts keep their textual form.
func decodeBatch(r io.Reader) ([]domain.Candidate, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode batch: %w", err)
	}

	batch := make([]domain.Candidate, len(raw))
	for i, obj := range raw {
		batch[i] = domain.Candidate(obj)
	}
	return batch, nil
}
