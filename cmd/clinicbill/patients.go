package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyeh/clinicbill/internal/billing"
	"github.com/gyeh/clinicbill/internal/model"
)

var patientsJSON bool

var patientsCmd = &cobra.Command{
	Use:   "patients",
	Short: "List patients with settled and payable totals",
	RunE:  runPatients,
}

func init() {
	patientsCmd.Flags().BoolVar(&patientsJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(patientsCmd)
}

type patientRow struct {
	PatientID string       `json:"patientId"`
	Name      string       `json:"name"`
	Age       string       `json:"age"`
	Settled   model.Totals `json:"settled"`
	Payable   model.Totals `json:"payable"`
}

func runPatients(cmd *cobra.Command, args []string) error {
	_, cancel, s, _ := openSession()
	defer cancel()
	defer s.Close()

	list := s.Book.List()
	rows := make([]patientRow, 0, len(list))
	for _, pb := range list {
		rows = append(rows, patientRow{
			PatientID: pb.PatientID,
			Name:      pb.Name,
			Age:       pb.AgeLabel(),
			Settled:   billing.PatientTotals(pb, model.StatusCompleted),
			Payable:   billing.PatientTotals(pb, model.StatusPending),
		})
	}

	if patientsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ID\tName\tAge\tSettled\tPayable\t")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			r.PatientID, r.Name, r.Age, r.Settled.Grand.StringFixed(2), r.Payable.Grand.StringFixed(2))
	}
	return w.Flush()
}
