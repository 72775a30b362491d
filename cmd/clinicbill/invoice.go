package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/clinicbill/internal/exitcode"
	"github.com/gyeh/clinicbill/internal/invoice"
)

var (
	invoicePatientID string
	invoiceOut       string
)

var invoiceCmd = &cobra.Command{
	Use:   "invoice",
	Short: "Render a patient's tax invoice as HTML",
	RunE:  runInvoice,
}

func init() {
	f := invoiceCmd.Flags()
	f.StringVar(&invoicePatientID, "patient", "", "Patient ID (required)")
	f.StringVar(&invoiceOut, "out", "", "Output file (default: stdout)")
	_ = invoiceCmd.MarkFlagRequired("patient")
	rootCmd.AddCommand(invoiceCmd)
}

func runInvoice(cmd *cobra.Command, args []string) error {
	_, cancel, s, log := openSession()
	defer cancel()
	defer s.Close()

	doc, html, err := s.Invoice(invoicePatientID)
	if err != nil {
		fail(log, err)
	}

	if invoiceOut == "" {
		_, err = os.Stdout.Write(html)
	} else {
		err = os.WriteFile(invoiceOut, html, 0644)
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to write invoice")
		os.Exit(exitcode.RenderError)
	}

	log.Info().
		Str("invoice", doc.Number).
		Str("sha256", invoice.Digest(html)).
		Str("grand_total", doc.Totals.Grand.StringFixed(2)).
		Str("outstanding", doc.Outstanding.StringFixed(2)).
		Msg("invoice rendered")
	if invoiceOut != "" {
		fmt.Printf("Wrote %s to %s\n", doc.Number, invoiceOut)
	}
	return nil
}
