package api

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gyeh/clinicbill/internal/model"
)

// FileSource serves the patient list from a saved backend response, for
// offline use and demos. The doctor id is ignored.
type FileSource struct {
	Path string
}

func (s FileSource) FetchDoctorPatients(ctx context.Context, _ string) ([]model.RawPatient, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, &model.NetworkError{Op: "read patients file", Err: err}
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parse patients file %s: %w", s.Path, err)
	}
	if !env.OK() {
		return nil, fmt.Errorf("patients file %s: status %q", s.Path, env.Status.String())
	}
	return env.Patients()
}
