// mkfixture writes a deterministic sample patient payload in the backend's
// {status,data} envelope, plus a matching profile, for offline runs.
// Usage: go run ./cmd/mkfixture --out testdata/patients.json --profile-out testdata/profile.yaml --patients 20
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/gyeh/clinicbill/internal/api"
	"github.com/gyeh/clinicbill/internal/config"
	"github.com/gyeh/clinicbill/internal/model"
)

var (
	firstNames = []string{"Asha", "Ravi", "Meera", "Arjun", "Kavya", "Vikram", "Neha", "Sanjay"}
	lastNames  = []string{"Rao", "Kumar", "Iyer", "Shah", "Menon", "Das", "Patel"}
	testNames  = []string{"CBC", "Lipid Profile", "HbA1c", "Thyroid Panel", "X-Ray Chest", "Urine Routine"}
	medNames   = []string{"Paracetamol 500mg", "Cetirizine 10mg", "Amoxicillin 250mg", "Pantoprazole 40mg", "Vitamin D3"}
	statuses   = []string{"completed", "pending", "Pending", "COMPLETED", ""}
	bloodTypes = []string{"O+", "A+", "B+", "AB+", "O-"}
)

func main() {
	out := flag.String("out", "testdata/patients.json", "output patients JSON")
	profileOut := flag.String("profile-out", "", "optional output profile YAML")
	n := flag.Int("patients", 20, "number of patients")
	flag.Parse()

	patients := make([]model.RawPatient, 0, *n)
	for i := 0; i < *n; i++ {
		patients = append(patients, samplePatient(i))
	}

	data, err := json.Marshal(patients)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal patients: %v\n", err)
		os.Exit(1)
	}
	body, err := json.MarshalIndent(api.Envelope{Status: "success", Data: data}, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal envelope: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, body, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		os.Exit(1)
	}

	if *profileOut != "" {
		y, err := yaml.Marshal(sampleProfile())
		if err != nil {
			fmt.Fprintf(os.Stderr, "marshal profile: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*profileOut, y, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "write profile: %v\n", err)
			os.Exit(1)
		}
	}

	tests, meds := 0, 0
	for _, p := range patients {
		tests += len(p.Tests)
		meds += len(p.Medicines)
	}
	fmt.Printf("Wrote %d patients to %s\n", len(patients), *out)
	fmt.Printf("  %-12s %d\n", "tests", tests)
	fmt.Printf("  %-12s %d\n", "medicines", meds)
	if *profileOut != "" {
		fmt.Printf("Wrote profile to %s\n", *profileOut)
	}
}

func pick(list []string, i int) string {
	return list[i%len(list)]
}

// samplePatient derives every field from i so reruns are byte-identical.
// Every fifth patient carries a malformed field to exercise normalization.
func samplePatient(i int) model.RawPatient {
	id := strconv.Itoa(i + 1)
	p := model.RawPatient{
		PatientID:  model.FlexString(id),
		Firstname:  pick(firstNames, i),
		Lastname:   pick(lastNames, i),
		DOB:        fmt.Sprintf("%02d-%02d-%d", 1+i%28, 1+i%12, 1950+i%60),
		Gender:     pick([]string{"Female", "Male"}, i),
		Mobile:     model.FlexString(fmt.Sprintf("98%08d", i)),
		BloodGroup: pick(bloodTypes, i),
	}
	if i%5 == 4 {
		p.DOB = "31-02-1990"
	}

	if i%3 != 2 {
		p.Appointments = []model.RawAppointment{{
			AppointmentID:   model.FlexString(strconv.Itoa(1000 + i)),
			AppointmentType: pick([]string{"Consultation", "Follow-up"}, i),
			AddressID:       model.FlexString(pick([]string{"A1", "A2"}, i)),
			AppointmentDate: fmt.Sprintf("2024-03-%02dT10:00:00Z", 1+i%28),
			FeeDetails:      &model.RawFeeDetails{FinalAmount: model.FlexString(strconv.Itoa(300 + 50*(i%4)))},
		}}
	}

	for j := 0; j < 1+i%3; j++ {
		k := i*3 + j
		price := strconv.Itoa(200 + 150*(k%5))
		if k%11 == 10 {
			price = "0"
		}
		if i%5 == 4 && j == 0 {
			price = "n/a"
		}
		p.Tests = append(p.Tests, model.RawTest{
			TestID:    model.FlexString(strconv.Itoa(3000 + k)),
			LabTestID: model.FlexString(fmt.Sprintf("LT%03d", k%17)),
			TestName:  pick(testNames, k),
			Price:     model.FlexString(price),
			Status:    pick(statuses, k),
			CreatedAt: fmt.Sprintf("2024-03-%02dT09:%02d:00Z", 1+k%28, k%60),
		})
	}

	for j := 0; j < i%4; j++ {
		k := i*4 + j
		p.Medicines = append(p.Medicines, model.RawMedicine{
			MedicineID:    model.FlexString(strconv.Itoa(4000 + k)),
			PharmacyMedID: model.FlexString(fmt.Sprintf("PH%03d", k%23)),
			MedName:       pick(medNames, k),
			Quantity:      model.FlexString(strconv.Itoa(1 + k%3)),
			Price:         model.FlexString(fmt.Sprintf("%d.%02d", 10+k%40, (k*25)%100)),
			Status:        pick(statuses, k+1),
			CreatedAt:     fmt.Sprintf("2024-03-%02dT11:%02d:00Z", 1+k%28, k%60),
		})
	}
	return p
}

func sampleProfile() config.Profile {
	return config.Profile{
		User: config.User{
			Name:      "Front Desk",
			Role:      "receptionist",
			UserID:    "12",
			CreatedBy: "42",
		},
		Addresses: []model.Address{
			{
				AddressID:   "A1",
				ClinicName:  "Sunrise Clinic",
				AddressLine: "12 MG Road",
				City:        "Bengaluru",
				State:       "Karnataka",
				Pincode:     "560001",
				Phone:       "08012345678",
				GSTIN:       "29ABCDE1234F1Z5",
			},
			{
				AddressID:   "A2",
				ClinicName:  "Lakeside Health Centre",
				AddressLine: "4 Lake View",
				City:        "Bengaluru",
				State:       "Karnataka",
				Pincode:     "560034",
			},
		},
	}
}
