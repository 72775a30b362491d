package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/gyeh/clinicbill/internal/exitcode"
	"github.com/gyeh/clinicbill/internal/logging"
	"github.com/gyeh/clinicbill/internal/model"
	"github.com/gyeh/clinicbill/internal/session"
)

// openSession validates the config, opens the session and loads the
// patient list. It exits the process on failure.
func openSession() (context.Context, context.CancelFunc, *session.Session, zerolog.Logger) {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	s, err := session.Open(ctx, &cfg, log)
	if err != nil {
		fail(log, err)
	}
	if _, err := s.Load(ctx); err != nil {
		s.Close()
		fail(log, err)
	}
	return ctx, cancel, s, log
}

// fail logs err with its user-facing message and exits with the code for
// its class.
func fail(log zerolog.Logger, err error) {
	phase := ""
	var pe *session.PhaseError
	if errors.As(err, &pe) {
		phase = pe.Phase
	}
	log.Error().Err(err).Str("phase", phase).Msg(model.UserMessage(err))
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	var (
		pe *session.PhaseError
		np *model.NoPendingItemsError
		is *model.InvalidSettlementError
	)
	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &np), errors.As(err, &is):
		return exitcode.NothingToSettle
	case errors.Is(err, model.ErrPatientNotFound):
		return exitcode.ValidationError
	case errors.Is(err, session.ErrNoSettler):
		return exitcode.UsageError
	case !errors.As(err, &pe):
		return exitcode.UsageError
	}
	switch pe.Phase {
	case session.PhaseConnect:
		return exitcode.DBConnError
	case session.PhaseFetch:
		return exitcode.FetchError
	case session.PhaseSettle:
		return exitcode.SettlementError
	case session.PhaseRender:
		return exitcode.RenderError
	case session.PhaseExport:
		return exitcode.ExportError
	default:
		return exitcode.UsageError
	}
}
