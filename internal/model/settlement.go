package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// wireStatusPending is the lowercase status the settlement endpoint expects.
const wireStatusPending = "pending"

// SettlementRequest is the body of POST /receptionist/totalBillPayFromReception.
type SettlementRequest struct {
	PatientID string               `json:"patientId"`
	DoctorID  string               `json:"doctorId"`
	Tests     []SettlementTest     `json:"tests"`
	Medicines []SettlementMedicine `json:"medicines"`
}

type SettlementTest struct {
	TestID    string      `json:"testId"`
	LabTestID string      `json:"labTestID"`
	Price     json.Number `json:"price"`
	Status    string      `json:"status"`
}

type SettlementMedicine struct {
	MedicineID    string      `json:"medicineId"`
	PharmacyMedID string      `json:"pharmacyMedID"`
	Quantity      int         `json:"quantity"`
	Price         json.Number `json:"price"`
	Status        string      `json:"status"`
}

// NewSettlementTest converts a pending test line item to its wire form.
func NewSettlementTest(li LineItem) SettlementTest {
	return SettlementTest{
		TestID:    li.ID,
		LabTestID: li.SourceID,
		Price:     json.Number(li.UnitPrice.String()),
		Status:    wireStatusPending,
	}
}

// NewSettlementMedicine converts a pending medicine line item to its wire form.
func NewSettlementMedicine(li LineItem) SettlementMedicine {
	return SettlementMedicine{
		MedicineID:    li.ID,
		PharmacyMedID: li.SourceID,
		Quantity:      li.Quantity,
		Price:         json.Number(li.UnitPrice.String()),
		Status:        wireStatusPending,
	}
}

// Empty reports whether the request carries no line items.
func (r *SettlementRequest) Empty() bool {
	return len(r.Tests) == 0 && len(r.Medicines) == 0
}

// SettlementResult summarises one confirmed settlement.
type SettlementResult struct {
	RequestID        uuid.UUID
	PatientID        string
	TestsSettled     int
	MedicinesSettled int
	Skipped          int // Pending items left unsettled for lack of a backend id
	Amount           decimal.Decimal
	SettledAt        time.Time
	Duration         time.Duration
}
