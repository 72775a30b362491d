package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/clinicbill/internal/model"
)

var refDate = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

var addressBook = []model.Address{
	{AddressID: "11", ClinicName: "Sunrise Clinic", City: "Pune"},
	{AddressID: "12", ClinicName: "Lakeside Clinic", City: "Nashik"},
}

func decodePatient(t *testing.T, payload string) *model.RawPatient {
	t.Helper()
	var raw model.RawPatient
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	return &raw
}

func TestToPatientBilling_FullRecord(t *testing.T) {
	raw := decodePatient(t, `{
		"patientId": 7,
		"firstname": " Asha ",
		"lastname": "Rao",
		"dob": "15-03-1992",
		"gender": "F",
		"mobile": 9876543210,
		"bloodGroup": "B+",
		"appointments": [
			{"appointmentId": 91, "appointmentType": "consultation", "addressId": 12,
			 "appointmentDate": "2024-05-02", "feeDetails": {"finalAmount": "350.50"}},
			{"appointmentId": 92, "appointmentType": "follow-up", "addressId": 99}
		],
		"tests": [
			{"testId": 301, "labTestID": 5, "testName": "CBC", "price": 500, "status": "pending"},
			{"testId": 302, "labTestID": 6, "testName": "Lipid", "price": "800", "status": "COMPLETED"}
		],
		"medicines": [
			{"medicineId": 401, "pharmacyMedID": 8, "medName": "Amoxicillin", "quantity": 2, "price": 45.25, "status": "completed"}
		]
	}`)

	pb, issues := ToPatientBilling(raw, addressBook, refDate)
	assert.Empty(t, issues)

	assert.Equal(t, "7", pb.PatientID)
	assert.Equal(t, "Asha Rao", pb.Name)
	assert.Equal(t, "32", pb.AgeLabel())
	assert.Equal(t, "9876543210", pb.Mobile)

	require.Len(t, pb.Appointments, 2)
	assert.Equal(t, "Lakeside Clinic", pb.Appointments[0].ClinicName)
	assert.True(t, decimal.RequireFromString("350.50").Equal(pb.Appointments[0].FeeAmount))
	assert.Equal(t, model.NotAvailable, pb.Appointments[1].ClinicName)
	assert.True(t, pb.Appointments[1].FeeAmount.IsZero())

	require.Len(t, pb.Tests, 2)
	assert.Equal(t, "301", pb.Tests[0].ID)
	assert.Equal(t, "5", pb.Tests[0].SourceID)
	assert.Equal(t, model.StatusPending, pb.Tests[0].Status)
	assert.Equal(t, model.StatusCompleted, pb.Tests[1].Status)
	assert.Equal(t, 1, pb.Tests[1].Quantity)

	require.Len(t, pb.Medicines, 1)
	assert.Equal(t, 2, pb.Medicines[0].Quantity)
	assert.Equal(t, "90.5", pb.Medicines[0].Amount().String())
}

func TestToPatientBilling_AbsentArrays(t *testing.T) {
	raw := decodePatient(t, `{"patientId": "3", "firstname": "Ravi"}`)

	pb, issues := ToPatientBilling(raw, nil, refDate)
	assert.Empty(t, issues)
	assert.NotNil(t, pb.Tests)
	assert.Empty(t, pb.Tests)
	assert.NotNil(t, pb.Medicines)
	assert.Empty(t, pb.Appointments)
	assert.Equal(t, "Ravi", pb.Name)
	assert.Equal(t, model.NotAvailable, pb.AgeLabel())
}

func TestToPatientBilling_MalformedFieldsDefault(t *testing.T) {
	raw := decodePatient(t, `{
		"patientId": 4,
		"dob": "31-02-1990",
		"tests": [{"testName": "X-Ray", "price": "abc", "status": "refunded"}],
		"medicines": [{"medName": "Syrup", "price": -5, "quantity": "0"}]
	}`)

	pb, issues := ToPatientBilling(raw, nil, refDate)
	require.Len(t, issues, 4)
	for _, err := range issues {
		var mre *model.MalformedRecordError
		require.True(t, errors.As(err, &mre))
		assert.Equal(t, "4", mre.PatientID)
	}

	assert.Nil(t, pb.Age)
	assert.True(t, pb.Tests[0].UnitPrice.IsZero())
	assert.Equal(t, model.StatusUnknown, pb.Tests[0].Status)
	assert.True(t, pb.Medicines[0].UnitPrice.IsZero())
	assert.Equal(t, 1, pb.Medicines[0].Quantity)
	assert.Equal(t, model.StatusUnknown, pb.Medicines[0].Status)
}

func TestToPatientBilling_DerivedIDsAreStable(t *testing.T) {
	payload := `{"patientId": 9, "tests": [{"labTestID": 2, "testName": "CBC", "price": 100, "status": "pending"}]}`

	a, _ := ToPatientBilling(decodePatient(t, payload), nil, refDate)
	b, _ := ToPatientBilling(decodePatient(t, payload), nil, refDate)

	require.NotEmpty(t, a.Tests[0].ID)
	assert.Equal(t, a.Tests[0].ID, b.Tests[0].ID)
	assert.Contains(t, a.Tests[0].ID, "test-")
	assert.True(t, a.Tests[0].Derived)
}

func TestToPatientBillings_PreservesOrder(t *testing.T) {
	var raws []model.RawPatient
	require.NoError(t, json.Unmarshal([]byte(`[{"patientId": 2}, {"patientId": 1, "tests": [{"price": "x"}]}]`), &raws))

	list, issues := ToPatientBillings(raws, nil, refDate)
	require.Len(t, list, 2)
	assert.Equal(t, "2", list[0].PatientID)
	assert.Equal(t, "1", list[1].PatientID)
	assert.Len(t, issues, 1)
}

func TestToPatientBillings_DropsMissingAndDuplicateIDs(t *testing.T) {
	var raws []model.RawPatient
	payload := `[
		{"patientId": 7, "firstname": "Asha"},
		{"firstname": "NoID"},
		{"patientId": " ", "firstname": "Blank"},
		{"patientId": "7", "firstname": "Again"},
		{"patientId": 8}
	]`
	require.NoError(t, json.Unmarshal([]byte(payload), &raws))

	list, issues := ToPatientBillings(raws, nil, refDate)
	require.Len(t, list, 2)
	assert.Equal(t, "7", list[0].PatientID)
	assert.Equal(t, "Asha", list[0].Firstname)
	assert.Equal(t, "8", list[1].PatientID)

	require.Len(t, issues, 3)
	for _, issue := range issues {
		var mre *model.MalformedRecordError
		require.True(t, errors.As(issue, &mre))
		assert.Equal(t, "patientId", mre.Field)
	}
	var dup *model.MalformedRecordError
	require.True(t, errors.As(issues[2], &dup))
	assert.Equal(t, "7", dup.PatientID)
	assert.Contains(t, dup.Reason, "duplicate")
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, model.StatusCompleted, ParseStatus("completed"))
	assert.Equal(t, model.StatusCompleted, ParseStatus(" Completed "))
	assert.Equal(t, model.StatusPending, ParseStatus("PENDING"))
	assert.Equal(t, model.StatusUnknown, ParseStatus(""))
	assert.Equal(t, model.StatusUnknown, ParseStatus("cancelled"))
}

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in      model.FlexString
		want    int
		wantErr bool
	}{
		{"3", 3, false},
		{"2.0", 2, false},
		{"", 1, false},
		{"2147483647", MaxQuantity, false},
		{"1.5", 1, true},
		{"0", 1, true},
		{"-4", 1, true},
		{"abc", 1, true},
		{"2147483648", 1, true},
		{"3000000000", 1, true},
		{"1e30", 1, true},
		{"18446744073709551617", 1, true},
	}
	for _, tt := range tests {
		q, err := ParseQuantity(tt.in)
		assert.Equal(t, tt.want, q, "ParseQuantity(%q)", tt.in)
		assert.Equal(t, tt.wantErr, err != nil, "ParseQuantity(%q) err = %v", tt.in, err)
	}
}

func TestToPatientBilling_OversizedQuantityIsReported(t *testing.T) {
	raw := decodePatient(t, `{"patientId": 5, "medicines": [{"medicineId": 1, "medName": "Syrup", "price": 10, "quantity": 1e30, "status": "pending"}]}`)

	pb, issues := ToPatientBilling(raw, nil, refDate)
	require.Len(t, issues, 1)
	var mre *model.MalformedRecordError
	require.True(t, errors.As(issues[0], &mre))
	assert.Equal(t, "medicine.quantity", mre.Field)
	assert.Equal(t, 1, pb.Medicines[0].Quantity)
	assert.Equal(t, "10", pb.Medicines[0].Amount().String())
}
