package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/txsurplus/auctiondb/internal/ingest"
)

var (
	ingestFile   string
	ingestSource string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Import a scraped auction batch file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		batch, err := ingest.ReadBatch(ingestFile)
		if err != nil {
			return err
		}

		source := ingestSource
		if source == "" {
			source = batch.Source
		}
		if source == "" {
			return eris.New("source is required: pass --source or set it in the batch file")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := initIngest(st).Ingest(ctx, batch.Auctions, source)
		if err != nil {
			return err
		}

		fmt.Printf("inserted %d, updated %d, skipped %d\n", res.Inserted, res.Updated, res.Skipped)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "batch JSON file (required)")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "source id (default from batch file)")
	ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}
