package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every normalized line item to a Parquet file",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output Parquet file (required)")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	_, cancel, s, log := openSession()
	defer cancel()
	defer s.Close()

	n, err := s.Export(exportOut)
	if err != nil {
		fail(log, err)
	}

	fmt.Printf("Exported %d line items for %d patients to %s\n", n, s.Book.Len(), exportOut)
	return nil
}
