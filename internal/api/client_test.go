package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/clinicbill/internal/model"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "secret-token", 5*time.Second, zerolog.Nop())
}

func writeJSON(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = io.WriteString(w, body)
}

func TestFetchDoctorPatients_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/receptionist/fetchMyDoctorPatients/doc-1", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"status": 200, "data": [{"patientId": 7, "firstname": "Asha", "tests": [{"testId": 1, "price": 500, "status": "pending"}]}]}`)
	})

	patients, err := c.FetchDoctorPatients(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "7", patients[0].PatientID.String())
	assert.Equal(t, model.FlexString("500"), patients[0].Tests[0].Price)
}

func TestFetchDoctorPatients_NullData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status": "success", "data": null}`)
	})

	patients, err := c.FetchDoctorPatients(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.NotNil(t, patients)
	assert.Empty(t, patients)
}

func TestFetchDoctorPatients_NonJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "<html>Gateway login</html>")
	})

	patients, err := c.FetchDoctorPatients(context.Background(), "doc-1")
	assert.Nil(t, patients)
	var ne *model.NetworkError
	require.True(t, errors.As(err, &ne), "got %v", err)
	assert.True(t, model.IsRetryable(err))
}

func TestFetchDoctorPatients_MissingData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status": "success"}`)
	})

	_, err := c.FetchDoctorPatients(context.Background(), "doc-1")
	assert.ErrorIs(t, err, ErrNoData)
	assert.True(t, model.IsRetryable(err))
}

func TestFetchDoctorPatients_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, `{"status": 502}`)
	})

	_, err := c.FetchDoctorPatients(context.Background(), "doc-1")
	var ne *model.NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusBadGateway, ne.StatusCode)
	assert.True(t, model.IsRetryable(err))
}

func TestFetchDoctorPatients_EnvelopeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status": "error", "message": "doctor not linked"}`)
	})

	_, err := c.FetchDoctorPatients(context.Background(), "doc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "doctor not linked")
}

func TestFetchDoctorPatients_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", time.Second, zerolog.Nop())
	_, err := c.FetchDoctorPatients(context.Background(), "doc-1")
	assert.True(t, model.IsRetryable(err))
}

func TestSettleBill(t *testing.T) {
	requestID := uuid.New()
	var got model.SettlementRequest

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/receptionist/totalBillPayFromReception", r.URL.Path)
		assert.Equal(t, requestID.String(), r.Header.Get("X-Request-ID"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.Contains(t, string(body), `"price":500`)
		assert.NoError(t, json.Unmarshal(body, &got))
		writeJSON(w, http.StatusOK, `{"status": 200, "data": "ok"}`)
	})

	req := &model.SettlementRequest{
		PatientID: "7",
		DoctorID:  "doc-1",
		Tests:     []model.SettlementTest{{TestID: "301", LabTestID: "5", Price: "500", Status: "pending"}},
		Medicines: []model.SettlementMedicine{},
	}
	require.NoError(t, c.SettleBill(context.Background(), requestID, req))
	assert.Equal(t, "7", got.PatientID)
	require.Len(t, got.Tests, 1)
	assert.Equal(t, "301", got.Tests[0].TestID)
}

func TestSettleBill_ServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"status": 500, "message": "boom"}`)
	})

	err := c.SettleBill(context.Background(), uuid.New(), &model.SettlementRequest{PatientID: "7"})
	var ne *model.NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusInternalServerError, ne.StatusCode)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patients.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"status": 200, "data": [{"patientId": "1"}, {"patientId": "2"}]}`), 0o644))

	patients, err := FileSource{Path: path}.FetchDoctorPatients(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Len(t, patients, 2)

	_, err = FileSource{Path: filepath.Join(t.TempDir(), "missing.json")}.FetchDoctorPatients(context.Background(), "x")
	assert.True(t, model.IsRetryable(err))
}

func TestFileSource_MissingData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patients.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"status": "success"}`), 0o644))

	_, err := FileSource{Path: path}.FetchDoctorPatients(context.Background(), "ignored")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestEnvelopeOK(t *testing.T) {
	for status, want := range map[model.FlexString]bool{
		"":        true,
		"200":     true,
		"201":     true,
		"success": true,
		"true":    true,
		"false":   false,
		"500":     false,
		"error":   false,
		"weird":   false,
	} {
		env := Envelope{Status: status}
		assert.Equal(t, want, env.OK(), "status %q", status)
	}
}
