package normalize

import (
	"fmt"
	"time"

	"github.com/gyeh/clinicbill/internal/model"
)

// ToPatientBilling converts a raw patient payload into the canonical billing
// aggregate. addresses is the requesting doctor's address book and ref is
// the reference date for the age calculation.
//
// Malformed fields never abort normalization: they are replaced by safe
// defaults and reported in the returned slice of *model.MalformedRecordError.
func ToPatientBilling(raw *model.RawPatient, addresses []model.Address, ref time.Time) (*model.PatientBilling, []error) {
	n := &normalizer{patientID: CleanID(raw.PatientID.String())}

	pb := &model.PatientBilling{
		PatientID:    n.patientID,
		Firstname:    raw.Firstname,
		Lastname:     raw.Lastname,
		Name:         FullName(raw.Firstname, raw.Lastname),
		Gender:       raw.Gender,
		Mobile:       raw.Mobile.String(),
		BloodGroup:   raw.BloodGroup,
		Appointments: make([]model.AppointmentDetail, 0, len(raw.Appointments)),
		Tests:        make([]model.LineItem, 0, len(raw.Tests)),
		Medicines:    make([]model.LineItem, 0, len(raw.Medicines)),
	}

	if age, ok := Age(raw.DOB, ref); ok {
		pb.Age = &age
	} else if raw.DOB != "" {
		n.issue("dob", raw.DOB, "unparseable or in the future")
	}

	for i := range raw.Appointments {
		pb.Appointments = append(pb.Appointments, n.appointment(&raw.Appointments[i], addresses))
	}
	for i := range raw.Tests {
		pb.Tests = append(pb.Tests, n.test(i, &raw.Tests[i]))
	}
	for i := range raw.Medicines {
		pb.Medicines = append(pb.Medicines, n.medicine(i, &raw.Medicines[i]))
	}

	return pb, n.issues
}

// ToPatientBillings normalizes a whole patient list, preserving order.
// Records without a patient id, and repeats of an id already seen, are
// dropped and reported; the first occurrence of an id wins.
func ToPatientBillings(raws []model.RawPatient, addresses []model.Address, ref time.Time) ([]*model.PatientBilling, []error) {
	out := make([]*model.PatientBilling, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	var issues []error
	for i := range raws {
		pb, errs := ToPatientBilling(&raws[i], addresses, ref)
		switch {
		case pb.PatientID == "":
			issues = append(issues, &model.MalformedRecordError{
				Field:  "patientId",
				Value:  raws[i].PatientID.String(),
				Reason: fmt.Sprintf("missing patient id, record %d dropped", i),
			})
			continue
		case seen[pb.PatientID]:
			issues = append(issues, &model.MalformedRecordError{
				PatientID: pb.PatientID,
				Field:     "patientId",
				Value:     pb.PatientID,
				Reason:    fmt.Sprintf("duplicate patient id, record %d dropped", i),
			})
			continue
		}
		seen[pb.PatientID] = true
		out = append(out, pb)
		issues = append(issues, errs...)
	}
	return out, issues
}

type normalizer struct {
	patientID string
	issues    []error
}

func (n *normalizer) issue(field, value, reason string) {
	n.issues = append(n.issues, &model.MalformedRecordError{
		PatientID: n.patientID,
		Field:     field,
		Value:     value,
		Reason:    reason,
	})
}

func (n *normalizer) appointment(a *model.RawAppointment, addresses []model.Address) model.AppointmentDetail {
	var fee model.FlexString
	if a.FeeDetails != nil {
		fee = a.FeeDetails.FinalAmount
	}
	amount, err := ParseMoney(fee)
	if err != nil {
		n.issue("appointment.feeDetails.finalAmount", string(fee), err.Error())
	}

	clinic := model.NotAvailable
	if addr, ok := model.FindAddress(addresses, a.AddressID.String()); ok && addr.ClinicName != "" {
		clinic = addr.ClinicName
	}

	return model.AppointmentDetail{
		AppointmentID:   CleanID(a.AppointmentID.String()),
		AppointmentType: a.AppointmentType,
		AddressID:       CleanID(a.AddressID.String()),
		FeeAmount:       amount,
		ClinicName:      clinic,
		Date:            ParseTimestamp(a.AppointmentDate),
	}
}

func (n *normalizer) test(i int, t *model.RawTest) model.LineItem {
	price, err := ParseMoney(t.Price)
	if err != nil {
		n.issue("test.price", string(t.Price), err.Error())
	}
	id := CleanID(t.TestID.String())
	sourceID := CleanID(t.LabTestID.String())
	derived := id == ""
	if derived {
		id = DerivedID(n.patientID, model.KindTest, i, sourceID, t.TestName, t.CreatedAt)
	}
	return model.LineItem{
		ID:        id,
		Derived:   derived,
		SourceID:  sourceID,
		Kind:      model.KindTest,
		Name:      t.TestName,
		UnitPrice: price,
		Quantity:  1,
		Status:    ParseStatus(t.Status),
		CreatedAt: ParseTimestamp(t.CreatedAt),
	}
}

func (n *normalizer) medicine(i int, m *model.RawMedicine) model.LineItem {
	price, err := ParseMoney(m.Price)
	if err != nil {
		n.issue("medicine.price", string(m.Price), err.Error())
	}
	qty, err := ParseQuantity(m.Quantity)
	if err != nil {
		n.issue("medicine.quantity", string(m.Quantity), err.Error())
	}
	id := CleanID(m.MedicineID.String())
	sourceID := CleanID(m.PharmacyMedID.String())
	derived := id == ""
	if derived {
		id = DerivedID(n.patientID, model.KindMedicine, i, sourceID, m.MedName, m.CreatedAt)
	}
	return model.LineItem{
		ID:        id,
		Derived:   derived,
		SourceID:  sourceID,
		Kind:      model.KindMedicine,
		Name:      m.MedName,
		UnitPrice: price,
		Quantity:  qty,
		Status:    ParseStatus(m.Status),
		CreatedAt: ParseTimestamp(m.CreatedAt),
	}
}
