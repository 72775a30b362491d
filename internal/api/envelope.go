package api

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gyeh/clinicbill/internal/model"
)

// Envelope is the `{status, data}` wrapper every backend response uses.
// status has been seen as a number, a string and a boolean.
type Envelope struct {
	Status  model.FlexString `json:"status"`
	Message string           `json:"message"`
	Data    json.RawMessage  `json:"data"`
}

// OK reports whether the envelope signals success. A missing status is
// treated as success because the HTTP status code already was.
func (e *Envelope) OK() bool {
	s := strings.ToLower(e.Status.String())
	switch s {
	case "", "ok", "success", "true":
		return true
	case "error", "fail", "failed", "false":
		return false
	}
	if code, err := strconv.Atoi(s); err == nil {
		return code >= 200 && code < 300
	}
	return false
}

// ErrNoData is returned when a response carries no data field at all, as
// with an HTML page served with a 200 by a proxy.
var ErrNoData = errors.New("response has no data field")

// Patients decodes data as a patient list. An explicit null is an empty
// list; an absent data field is ErrNoData.
func (e *Envelope) Patients() ([]model.RawPatient, error) {
	if len(e.Data) == 0 {
		return nil, ErrNoData
	}
	if string(e.Data) == "null" {
		return []model.RawPatient{}, nil
	}
	var out []model.RawPatient
	if err := json.Unmarshal(e.Data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
