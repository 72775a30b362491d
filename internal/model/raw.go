package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// FlexString holds a scalar the backend may send either as a JSON string or
// as a JSON number. Numbers keep their literal text so money values are not
// routed through float64 before they reach decimal parsing.
type FlexString string

// UnmarshalJSON accepts strings, numbers and null. Any other literal is kept
// verbatim and left for the normalizer to reject.
func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*s = ""
		return nil
	}
	if b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	*s = FlexString(b)
	return nil
}

// UnmarshalYAML takes the raw scalar text so `address_id: 12` and
// `address_id: "12"` decode identically.
func (s *FlexString) UnmarshalYAML(n *yaml.Node) error {
	*s = FlexString(n.Value)
	return nil
}

// String returns the trimmed value.
func (s FlexString) String() string {
	return strings.TrimSpace(string(s))
}

// RawPatient mirrors one element of the fetchMyDoctorPatients payload.
// Any of the nested arrays may be absent.
type RawPatient struct {
	PatientID    FlexString       `json:"patientId"`
	Firstname    string           `json:"firstname"`
	Lastname     string           `json:"lastname"`
	DOB          string           `json:"dob"`
	Gender       string           `json:"gender"`
	Mobile       FlexString       `json:"mobile"`
	BloodGroup   string           `json:"bloodGroup"`
	Appointments []RawAppointment `json:"appointments"`
	Tests        []RawTest        `json:"tests"`
	Medicines    []RawMedicine    `json:"medicines"`
}

type RawAppointment struct {
	AppointmentID   FlexString     `json:"appointmentId"`
	AppointmentType string         `json:"appointmentType"`
	AddressID       FlexString     `json:"addressId"`
	AppointmentDate string         `json:"appointmentDate"`
	FeeDetails      *RawFeeDetails `json:"feeDetails"`
}

type RawFeeDetails struct {
	FinalAmount FlexString `json:"finalAmount"`
}

type RawTest struct {
	TestID    FlexString `json:"testId"`
	LabTestID FlexString `json:"labTestID"`
	TestName  string     `json:"testName"`
	Price     FlexString `json:"price"`
	Status    string     `json:"status"`
	CreatedAt string     `json:"createdAt"`
}

type RawMedicine struct {
	MedicineID    FlexString `json:"medicineId"`
	PharmacyMedID FlexString `json:"pharmacyMedID"`
	MedName       string     `json:"medName"`
	Quantity      FlexString `json:"quantity"`
	Price         FlexString `json:"price"`
	Status        string     `json:"status"`
	CreatedAt     string     `json:"createdAt"`
}

// Address is one entry of the doctor's address book. It doubles as the
// clinic identity printed on invoices.
type Address struct {
	AddressID   FlexString `json:"addressId" yaml:"address_id"`
	ClinicName  string     `json:"clinicName" yaml:"clinic_name"`
	AddressLine string     `json:"addressLine" yaml:"address_line"`
	City        string     `json:"city" yaml:"city"`
	State       string     `json:"state" yaml:"state"`
	Pincode     FlexString `json:"pincode" yaml:"pincode"`
	Phone       FlexString `json:"phone" yaml:"phone"`
	GSTIN       string     `json:"gstin" yaml:"gstin"`
}

// FindAddress returns the address whose id matches, or ok=false.
func FindAddress(addresses []Address, id string) (Address, bool) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Address{}, false
	}
	for _, a := range addresses {
		if a.AddressID.String() == id {
			return a, true
		}
	}
	return Address{}, false
}
