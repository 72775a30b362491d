package billing

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/gyeh/clinicbill/internal/model"
)

// ComputeTotals returns category and grand totals for one status view.
//
// A line item contributes UnitPrice*Quantity only when its status equals
// filter and its price is positive. Appointment fees have no settlement
// status: they count in the Completed view and never in the Pending view,
// because settlement covers tests and medicines only.
func ComputeTotals(appointments []model.AppointmentDetail, tests, medicines []model.LineItem, filter model.Status) model.Totals {
	t := model.Totals{
		Appointments: decimal.Zero,
		Tests:        sumItems(tests, filter),
		Medicines:    sumItems(medicines, filter),
	}
	if filter == model.StatusCompleted {
		t.Appointments = lo.Reduce(appointments, func(acc decimal.Decimal, a model.AppointmentDetail, _ int) decimal.Decimal {
			if !a.FeeAmount.IsPositive() {
				return acc
			}
			return acc.Add(a.FeeAmount)
		}, decimal.Zero)
	}
	t.Grand = t.Appointments.Add(t.Tests).Add(t.Medicines)
	return t
}

// PatientTotals computes ComputeTotals over one patient's slices.
func PatientTotals(pb *model.PatientBilling, filter model.Status) model.Totals {
	return ComputeTotals(pb.Appointments, pb.Tests, pb.Medicines, filter)
}

func sumItems(items []model.LineItem, filter model.Status) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		if li.Billable(filter) {
			sum = sum.Add(li.Amount())
		}
	}
	return sum
}

// PendingItems returns the patient's Pending tests and medicines.
func PendingItems(pb *model.PatientBilling) (tests, medicines []model.LineItem) {
	isPending := func(li model.LineItem, _ int) bool { return li.Status == model.StatusPending }
	return lo.Filter(pb.Tests, isPending), lo.Filter(pb.Medicines, isPending)
}
