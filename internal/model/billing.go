package model

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the settlement state of a line item.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
	// StatusUnknown is assigned to missing or unrecognised statuses and
	// takes part in no total.
	StatusUnknown Status = "Unknown"
)

// Kind distinguishes the two line-item sources.
type Kind string

const (
	KindTest     Kind = "test"
	KindMedicine Kind = "medicine"
)

// NotAvailable is rendered wherever a derived value could not be computed.
const NotAvailable = "N/A"

// LineItem is a billable lab test or pharmacy item. Tests always have
// Quantity 1. Derived is set when the backend sent no id and ID was
// generated locally; the backend cannot settle such an item.
type LineItem struct {
	ID        string
	Derived   bool
	SourceID  string // labTestID or pharmacyMedID
	Kind      Kind
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Status    Status
	CreatedAt *time.Time
}

// Amount is UnitPrice * Quantity.
func (li LineItem) Amount() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Billable reports whether the item counts towards a total filtered by status.
func (li LineItem) Billable(filter Status) bool {
	return li.Status == filter && li.UnitPrice.IsPositive()
}

// AppointmentDetail is a normalized appointment. Appointments carry no
// settlement status of their own.
type AppointmentDetail struct {
	AppointmentID   string
	AppointmentType string
	AddressID       string
	FeeAmount       decimal.Decimal
	ClinicName      string
	Date            *time.Time
}

// PatientBilling is the canonical per-patient billing aggregate. It is
// rebuilt from scratch on every fetch; totals are always derived from the
// slices, never stored.
type PatientBilling struct {
	PatientID    string
	Firstname    string
	Lastname     string
	Name         string
	Age          *int
	Gender       string
	Mobile       string
	BloodGroup   string
	Appointments []AppointmentDetail
	Tests        []LineItem
	Medicines    []LineItem
}

// AgeLabel renders the age or "N/A".
func (p *PatientBilling) AgeLabel() string {
	if p.Age == nil {
		return NotAvailable
	}
	return strconv.Itoa(*p.Age)
}

// LineItems returns tests followed by medicines.
func (p *PatientBilling) LineItems() []LineItem {
	out := make([]LineItem, 0, len(p.Tests)+len(p.Medicines))
	out = append(out, p.Tests...)
	return append(out, p.Medicines...)
}

// Clone returns a deep copy safe to hand to readers.
func (p *PatientBilling) Clone() *PatientBilling {
	if p == nil {
		return nil
	}
	c := *p
	if p.Age != nil {
		age := *p.Age
		c.Age = &age
	}
	c.Appointments = append([]AppointmentDetail{}, p.Appointments...)
	c.Tests = append([]LineItem{}, p.Tests...)
	c.Medicines = append([]LineItem{}, p.Medicines...)
	return &c
}

// Totals are category and grand totals for one status view.
type Totals struct {
	Appointments decimal.Decimal `json:"appointments"`
	Tests        decimal.Decimal `json:"tests"`
	Medicines    decimal.Decimal `json:"medicines"`
	Grand        decimal.Decimal `json:"grand"`
}
