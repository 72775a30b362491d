// Package session wires one clinicbill run together: fetch with retry,
// normalize into the Book, settle, render and export.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/clinicbill/internal/api"
	"github.com/gyeh/clinicbill/internal/billing"
	"github.com/gyeh/clinicbill/internal/config"
	"github.com/gyeh/clinicbill/internal/db"
	"github.com/gyeh/clinicbill/internal/export"
	"github.com/gyeh/clinicbill/internal/fetch"
	"github.com/gyeh/clinicbill/internal/invoice"
	"github.com/gyeh/clinicbill/internal/lock"
	"github.com/gyeh/clinicbill/internal/model"
	"github.com/gyeh/clinicbill/internal/normalize"
)

const (
	PhaseConnect = "connect"
	PhaseFetch   = "fetch"
	PhaseSettle  = "settle"
	PhaseRender  = "render"
	PhaseExport  = "export"
)

// advisoryNamespace separates settlement lock ids from other advisory users
// of the same database.
const advisoryNamespace = "clinicbill.settle"

// ErrNoSettler is returned by Settle when no backend URL was configured.
var ErrNoSettler = errors.New("settlement needs --api-url")

// PhaseError wraps an error with the phase where it occurred.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// LoadSummary describes one completed patient list load.
type LoadSummary struct {
	Patients int
	Issues   int
	Retries  int
	Duration time.Duration
}

// Deps are the collaborators a Session runs against. Open builds them from
// a Config; tests pass fakes to New.
type Deps struct {
	Source       fetch.Source
	Settler      billing.Settler
	Locks        lock.Locker
	Now          func() time.Time
	FetchOptions []fetch.Option
}

type Session struct {
	log       zerolog.Logger
	doctorID  string
	addresses []model.Address
	userName  string
	deps      Deps
	renderer  *invoice.Renderer
	pool      *pgxpool.Pool
	canSettle bool

	Book        *billing.Book
	Coordinator *billing.Coordinator
}

// New assembles a session from explicit dependencies.
func New(cfg *config.Config, log zerolog.Logger, deps Deps) (*Session, error) {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	canSettle := deps.Settler != nil
	if !canSettle {
		deps.Settler = noSettler{}
	}
	renderer, err := invoice.NewRenderer(deps.Now)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseRender, Err: err}
	}

	book := billing.NewBook()
	return &Session{
		log:         log,
		doctorID:    cfg.DoctorID,
		addresses:   cfg.Addresses(),
		userName:    cfg.UserName(),
		deps:        deps,
		renderer:    renderer,
		canSettle:   canSettle,
		Book:        book,
		Coordinator: billing.NewCoordinator(book, deps.Settler, deps.Locks, cfg.DoctorID, log),
	}, nil
}

// Open builds the backend client, the patient source and the settlement
// locks described by cfg. With a DSN the in-process lock is chained with a
// Postgres advisory lock.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Session, error) {
	deps := Deps{
		FetchOptions: []fetch.Option{
			fetch.WithMaxRetries(cfg.MaxRetries),
			fetch.WithRetryDelay(cfg.RetryDelay),
		},
	}

	if cfg.BaseURL != "" {
		client := api.NewClient(cfg.BaseURL, cfg.Token, cfg.Timeout, log)
		deps.Source = client
		deps.Settler = client
	}
	if cfg.PatientsFile != "" {
		deps.Source = api.FileSource{Path: cfg.PatientsFile}
	}

	var pool *pgxpool.Pool
	if cfg.DSN != "" {
		p, err := db.NewPool(ctx, cfg.DSN)
		if err != nil {
			return nil, &PhaseError{Phase: PhaseConnect, Err: err}
		}
		pool = p
		deps.Locks = lock.Chain(lock.NewInflight(), lock.NewAdvisory(pool, advisoryNamespace, log))
		log.Info().Msg("postgres settlement lock enabled")
	}

	s, err := New(cfg, log, deps)
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, err
	}
	s.pool = pool
	return s, nil
}

// Close releases the database pool, if any.
func (s *Session) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Load fetches the patient list with retry, normalizes it and replaces the
// Book atomically. Malformed fields are logged and defaulted.
func (s *Session) Load(ctx context.Context) (*LoadSummary, error) {
	if s.deps.Source == nil {
		return nil, &PhaseError{Phase: PhaseFetch, Err: errors.New("no patient source configured")}
	}
	start := s.deps.Now()

	var raws []model.RawPatient
	ctl := fetch.New(s.deps.Source, s.doctorID, func(p []model.RawPatient) { raws = p }, s.log, s.deps.FetchOptions...)
	if err := ctl.Start(ctx); err != nil {
		st := ctl.Status()
		if st.Message != "" {
			s.log.Error().Str("state", st.State.String()).Msg(st.Message)
		}
		return nil, &PhaseError{Phase: PhaseFetch, Err: err}
	}

	patients, issues := normalize.ToPatientBillings(raws, s.addresses, s.deps.Now())
	for _, issue := range issues {
		s.log.Warn().Err(issue).Msg("malformed patient record")
	}
	if dropped := s.Book.Replace(patients); dropped > 0 {
		s.log.Warn().Int("dropped", dropped).Msg("duplicate patient ids dropped")
	}

	summary := &LoadSummary{
		Patients: s.Book.Len(),
		Issues:   len(issues),
		Retries:  ctl.Status().RetryCount,
		Duration: s.deps.Now().Sub(start),
	}
	s.log.Info().
		Int("patients", summary.Patients).
		Int("issues", summary.Issues).
		Int("retries", summary.Retries).
		Msg("patient list loaded")
	return summary, nil
}

// Settle pays every pending line item of one patient.
func (s *Session) Settle(ctx context.Context, patientID string) (*model.SettlementResult, error) {
	if !s.canSettle {
		return nil, &PhaseError{Phase: PhaseSettle, Err: ErrNoSettler}
	}
	res, err := s.Coordinator.Settle(ctx, patientID)
	if err != nil {
		return nil, &PhaseError{Phase: PhaseSettle, Err: err}
	}
	return res, nil
}

// Invoice renders the invoice for one patient from the current Book.
func (s *Session) Invoice(patientID string) (*invoice.Document, []byte, error) {
	pb, err := s.Book.Get(patientID)
	if err != nil {
		return nil, nil, &PhaseError{Phase: PhaseRender, Err: err}
	}
	doc, html, err := s.renderer.Render(pb, invoice.Context{
		Addresses:  s.addresses,
		PreparedBy: s.userName,
	})
	if err != nil {
		return nil, nil, &PhaseError{Phase: PhaseRender, Err: err}
	}
	return doc, html, nil
}

// Export writes every line item in the Book to a Parquet file.
func (s *Session) Export(path string) (int, error) {
	n, err := export.WriteLineItems(path, s.Book.List())
	if err != nil {
		return 0, &PhaseError{Phase: PhaseExport, Err: err}
	}
	return n, nil
}

// Totals returns the settled and payable views for one patient.
func (s *Session) Totals(patientID string) (settled, payable model.Totals, err error) {
	pb, err := s.Book.Get(patientID)
	if err != nil {
		return model.Totals{}, model.Totals{}, err
	}
	return billing.PatientTotals(pb, model.StatusCompleted), billing.PatientTotals(pb, model.StatusPending), nil
}

type noSettler struct{}

func (noSettler) SettleBill(context.Context, uuid.UUID, *model.SettlementRequest) error {
	return ErrNoSettler
}
