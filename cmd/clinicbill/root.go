package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/clinicbill/internal/config"
	"github.com/gyeh/clinicbill/internal/fetch"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "clinicbill",
	Short: "Patient billing: totals, settlement and invoices",
	Long: "Loads a doctor's patients from the clinic backend, shows settled and payable totals, " +
		"settles pending lab tests and medicines, and renders tax invoices.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.LoadFromFile(cmd.Flags().Changed)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.BaseURL, "api-url", os.Getenv("CLINICBILL_API_URL"), "Backend base URL (or set CLINICBILL_API_URL)")
	pf.StringVar(&cfg.Token, "token", os.Getenv("CLINICBILL_TOKEN"), "Bearer token (or set CLINICBILL_TOKEN)")
	pf.StringVar(&cfg.DoctorID, "doctor-id", "", "Doctor whose patients to load (default: resolved from the profile)")
	pf.StringVar(&cfg.ProfilePath, "profile", "", "YAML profile with user, address book and retry overrides")
	pf.StringVar(&cfg.PatientsFile, "patients-file", "", "Read patients from a saved {status,data} JSON file instead of the API")
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("CLINICBILL_DB_URL"), "Postgres connection string for cross-process settlement locks (or set CLINICBILL_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.IntVar(&cfg.MaxRetries, "max-retries", fetch.DefaultMaxRetries, "Automatic retries after a failed patient fetch")
	pf.DurationVar(&cfg.RetryDelay, "retry-delay", fetch.DefaultRetryDelay, "Fixed delay between fetch retries")
	pf.DurationVar(&cfg.Timeout, "timeout", 30*time.Second, "HTTP request timeout")
}
