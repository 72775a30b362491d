// Package export writes normalized line items to Parquet for offline
// reconciliation and reads them back.
package export

import (
	"time"

	"github.com/gyeh/clinicbill/internal/model"
)

// LineItemRow is the Parquet schema for one exported line item. Money is
// stored as integer cents.
type LineItemRow struct {
	PatientID   string `parquet:"patient_id"`
	PatientName string `parquet:"patient_name"`
	Kind        string `parquet:"kind"`
	ItemID      string `parquet:"item_id"`
	Name        string `parquet:"name"`
	Status      string `parquet:"status"`

	SourceID  *string `parquet:"source_id,optional"`
	CreatedAt *string `parquet:"created_at,optional"`

	Quantity       int64 `parquet:"quantity"`
	UnitPriceCents int64 `parquet:"unit_price_cents"`
	AmountCents    int64 `parquet:"amount_cents"`
}

// RequiredColumns are checked by ValidateSchema.
var RequiredColumns = []string{
	"patient_id", "kind", "item_id", "status", "quantity", "unit_price_cents", "amount_cents",
}

// Rows flattens the patients' tests and medicines in list order.
func Rows(patients []*model.PatientBilling) []LineItemRow {
	var rows []LineItemRow
	for _, pb := range patients {
		if pb == nil {
			continue
		}
		for _, li := range pb.LineItems() {
			rows = append(rows, newRow(pb, li))
		}
	}
	return rows
}

func newRow(pb *model.PatientBilling, li model.LineItem) LineItemRow {
	row := LineItemRow{
		PatientID:      pb.PatientID,
		PatientName:    pb.Name,
		Kind:           string(li.Kind),
		ItemID:         li.ID,
		Name:           li.Name,
		Status:         string(li.Status),
		Quantity:       int64(li.Quantity),
		UnitPriceCents: li.UnitPrice.Shift(2).Round(0).IntPart(),
		AmountCents:    li.Amount().Shift(2).Round(0).IntPart(),
	}
	if li.SourceID != "" {
		src := li.SourceID
		row.SourceID = &src
	}
	if li.CreatedAt != nil {
		ts := li.CreatedAt.UTC().Format(time.RFC3339)
		row.CreatedAt = &ts
	}
	return row
}
