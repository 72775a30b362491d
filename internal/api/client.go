package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/clinicbill/internal/model"
)

const (
	patientsPath   = "/receptionist/fetchMyDoctorPatients/{doctorId}"
	settlementPath = "/receptionist/totalBillPayFromReception"
)

// Client talks to the portal backend. It never retries on its own: fetch
// retries belong to the fetch controller and settlements must not be
// resubmitted blindly.
type Client struct {
	http *resty.Client
	log  zerolog.Logger
}

// NewClient creates a backend client. token is sent as a bearer token when
// non-empty.
func NewClient(baseURL, token string, timeout time.Duration, log zerolog.Logger) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if token != "" {
		c.SetAuthToken(token)
	}
	return &Client{http: c, log: log}
}

// FetchDoctorPatients returns the raw patient list for a doctor. The body
// is decoded as JSON whatever its Content-Type, and a body without a data
// field is a *model.NetworkError, never an empty list.
func (c *Client) FetchDoctorPatients(ctx context.Context, doctorID string) ([]model.RawPatient, error) {
	const op = "fetch patients"
	start := time.Now()

	var env Envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("doctorId", doctorID).
		ForceContentType("application/json").
		SetResult(&env).
		Get(patientsPath)
	if cerr := classify(op, resp, err, &env); cerr != nil {
		c.log.Warn().Err(cerr).Str("doctor_id", doctorID).Msg("patient fetch failed")
		return nil, cerr
	}

	patients, err := env.Patients()
	if err != nil {
		return nil, &model.NetworkError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("decode data: %w", err)}
	}

	c.log.Info().
		Str("doctor_id", doctorID).
		Int("patients", len(patients)).
		Dur("duration", time.Since(start)).
		Msg("patients fetched")
	return patients, nil
}

// SettleBill submits one settlement. requestID travels as X-Request-ID so
// the backend can recognise a duplicate submission.
func (c *Client) SettleBill(ctx context.Context, requestID uuid.UUID, req *model.SettlementRequest) error {
	const op = "settle bill"

	var env Envelope
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", requestID.String()).
		SetBody(req).
		SetResult(&env).
		Post(settlementPath)
	if cerr := classify(op, resp, err, &env); cerr != nil {
		return cerr
	}

	c.log.Info().
		Str("patient_id", req.PatientID).
		Str("request_id", requestID.String()).
		Int("status_code", resp.StatusCode()).
		Msg("settlement accepted")
	return nil
}

// classify turns a resty outcome into nil or a *model.NetworkError.
func classify(op string, resp *resty.Response, err error, env *Envelope) error {
	if err != nil {
		ne := &model.NetworkError{Op: op, Err: err}
		if resp != nil {
			ne.StatusCode = resp.StatusCode()
		}
		return ne
	}
	if resp.IsError() {
		return &model.NetworkError{Op: op, StatusCode: resp.StatusCode(), Err: errors.New(resp.Status())}
	}
	if !env.OK() {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("backend status %q", env.Status.String())
		}
		return &model.NetworkError{Op: op, StatusCode: resp.StatusCode(), Err: errors.New(msg)}
	}
	return nil
}
