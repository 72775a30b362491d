package export

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/clinicbill/internal/model"
)

// WriteLineItems writes every line item of the given patients to a Parquet
// file at path and returns the number of rows written.
func WriteLineItems(path string, patients []*model.PatientBilling) (int, error) {
	rows := Rows(patients)

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}

	w := parquet.NewGenericWriter[LineItemRow](f)
	if _, err := w.Write(rows); err != nil {
		f.Close()
		return 0, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return 0, fmt.Errorf("close parquet writer: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close export file: %w", err)
	}
	return len(rows), nil
}
