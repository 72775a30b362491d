package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settlePatientID string

var settleCmd = &cobra.Command{
	Use:   "settle",
	Short: "Pay every pending lab test and medicine of a patient",
	RunE:  runSettle,
}

func init() {
	settleCmd.Flags().StringVar(&settlePatientID, "patient", "", "Patient ID (required)")
	_ = settleCmd.MarkFlagRequired("patient")
	rootCmd.AddCommand(settleCmd)
}

func runSettle(cmd *cobra.Command, args []string) error {
	ctx, cancel, s, log := openSession()
	defer cancel()
	defer s.Close()

	res, err := s.Settle(ctx, settlePatientID)
	if err != nil {
		fail(log, err)
	}

	fmt.Printf("Settled patient %s: %d tests, %d medicines, %s (request %s, %.1fs)\n",
		res.PatientID, res.TestsSettled, res.MedicinesSettled,
		res.Amount.StringFixed(2), res.RequestID, res.Duration.Seconds())
	return nil
}
