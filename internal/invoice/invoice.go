// Package invoice renders the printable tax invoice for a patient's settled
// charges.
package invoice

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/gyeh/clinicbill/internal/billing"
	"github.com/gyeh/clinicbill/internal/model"
)

// Unresolved is printed for any clinic or patient field that is missing.
const Unresolved = "NA"

const (
	dateLayout = "02-01-2006"
	timeLayout = "03:04 PM"
)

//go:embed templates/invoice.html.tmpl
var invoiceHTML string

// Context carries the caller-owned data the invoice needs beyond the
// patient: the doctor's address book and the display name of the user
// printing the invoice.
type Context struct {
	Addresses  []model.Address
	PreparedBy string
}

type Clinic struct {
	Name        string
	AddressLine string
	City        string
	State       string
	Pincode     string
	Phone       string
	GSTIN       string
}

type Patient struct {
	ID         string
	Name       string
	Age        string
	Gender     string
	Mobile     string
	BloodGroup string
}

type AppointmentRow struct {
	ID     string
	Type   string
	Clinic string
	Amount string
}

type ItemRow struct {
	Name      string
	Quantity  int
	UnitPrice string
	Amount    string
}

// Document is the data bound into the invoice template. Totals is the
// settled (Completed) view; Outstanding is the Pending grand total, which
// is shown separately and never added to Totals.Grand.
type Document struct {
	Number       string
	BillingDate  string
	BillingTime  string
	Clinic       Clinic
	Patient      Patient
	Appointments []AppointmentRow
	Tests        []ItemRow
	Medicines    []ItemRow
	Totals       model.Totals
	Outstanding  decimal.Decimal
	PreparedBy   string
}

// Renderer turns a PatientBilling into an invoice. It reads the clock only
// through nowFunc.
type Renderer struct {
	tmpl    *template.Template
	nowFunc func() time.Time
}

// NewRenderer parses the embedded template. A nil now uses time.Now.
func NewRenderer(now func() time.Time) (*Renderer, error) {
	if now == nil {
		now = time.Now
	}
	tmpl, err := template.New("invoice").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"inc":   func(i int) int { return i + 1 },
	}).Parse(invoiceHTML)
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	return &Renderer{tmpl: tmpl, nowFunc: now}, nil
}

// Build assembles the invoice document without rendering it. The patient
// is only read.
func (r *Renderer) Build(pb *model.PatientBilling, ictx Context) *Document {
	now := r.nowFunc()
	return &Document{
		Number:      InvoiceNumber(pb.PatientID),
		BillingDate: now.Format(dateLayout),
		BillingTime: now.Format(timeLayout),
		Clinic:      resolveClinic(pb, ictx.Addresses),
		Patient: Patient{
			ID:         orNA(pb.PatientID),
			Name:       orNA(pb.Name),
			Age:        pb.AgeLabel(),
			Gender:     orNA(pb.Gender),
			Mobile:     orNA(pb.Mobile),
			BloodGroup: orNA(pb.BloodGroup),
		},
		Appointments: lo.Map(pb.Appointments, func(a model.AppointmentDetail, _ int) AppointmentRow {
			return AppointmentRow{
				ID:     orNA(a.AppointmentID),
				Type:   orNA(a.AppointmentType),
				Clinic: orNA(a.ClinicName),
				Amount: a.FeeAmount.StringFixed(2),
			}
		}),
		Tests:       settledRows(pb.Tests),
		Medicines:   settledRows(pb.Medicines),
		Totals:      billing.PatientTotals(pb, model.StatusCompleted),
		Outstanding: billing.PatientTotals(pb, model.StatusPending).Grand,
		PreparedBy:  orNA(ictx.PreparedBy),
	}
}

// Render builds the document and executes the template. Identical inputs
// and clock produce byte-identical output.
func (r *Renderer) Render(pb *model.PatientBilling, ictx Context) (*Document, []byte, error) {
	if pb == nil {
		return nil, nil, errors.New("render invoice: nil patient")
	}
	doc := r.Build(pb, ictx)
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return nil, nil, fmt.Errorf("render invoice %s: %w", doc.Number, err)
	}
	return doc, buf.Bytes(), nil
}

// InvoiceNumber formats "INV-" followed by the patient id left-padded with
// zeros to three characters.
func InvoiceNumber(patientID string) string {
	id := strings.TrimSpace(patientID)
	if n := len(id); n < 3 {
		id = strings.Repeat("0", 3-n) + id
	}
	return "INV-" + id
}

// Digest is the hex SHA-256 of a rendered invoice.
func Digest(html []byte) string {
	sum := sha256.Sum256(html)
	return hex.EncodeToString(sum[:])
}

func resolveClinic(pb *model.PatientBilling, addresses []model.Address) Clinic {
	c := Clinic{
		Name:        Unresolved,
		AddressLine: Unresolved,
		City:        Unresolved,
		State:       Unresolved,
		Pincode:     Unresolved,
		Phone:       Unresolved,
		GSTIN:       Unresolved,
	}
	if len(pb.Appointments) == 0 {
		return c
	}
	addr, ok := model.FindAddress(addresses, pb.Appointments[0].AddressID)
	if !ok {
		return c
	}
	c.Name = orNA(addr.ClinicName)
	c.AddressLine = orNA(addr.AddressLine)
	c.City = orNA(addr.City)
	c.State = orNA(addr.State)
	c.Pincode = orNA(addr.Pincode.String())
	c.Phone = orNA(addr.Phone.String())
	c.GSTIN = orNA(addr.GSTIN)
	return c
}

func settledRows(items []model.LineItem) []ItemRow {
	return lo.FilterMap(items, func(li model.LineItem, _ int) (ItemRow, bool) {
		return ItemRow{
			Name:      orNA(li.Name),
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice.StringFixed(2),
			Amount:    li.Amount().StringFixed(2),
		}, li.Billable(model.StatusCompleted)
	})
}

func orNA(s string) string {
	if t := strings.TrimSpace(s); t == "" || t == model.NotAvailable {
		return Unresolved
	}
	return s
}
