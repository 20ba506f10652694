package get

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clinic-service/api"
	"clinic-service/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	slots []api.SlotResponse
	err   error

	gotStaffID   string
	gotServiceID string
	gotDate      string
}

func (f *fakeProvider) ComputeAvailableSlots(_ context.Context, staffID, serviceID, date string) ([]api.SlotResponse, error) {
	f.gotStaffID = staffID
	f.gotServiceID = serviceID
	f.gotDate = date
	return f.slots, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doRequest(t *testing.T, provider *fakeProvider, url string) *httptest.ResponseRecorder {
	t.Helper()

	handler := New(discardLogger(), provider)

	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	return rec
}

func TestGetSlots_OK(t *testing.T) {
	start := time.Date(2026, 8, 31, 13, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		slots: []api.SlotResponse{
			{StartTime: start, EndTime: start.Add(time.Hour)},
			{StartTime: start.Add(15 * time.Minute), EndTime: start.Add(75 * time.Minute)},
		},
	}

	rec := doRequest(t, provider, "/availability/slots?staff_id=staff-1&service_id=svc-1&date=2026-08-31")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "staff-1", provider.gotStaffID)
	assert.Equal(t, "svc-1", provider.gotServiceID)
	assert.Equal(t, "2026-08-31", provider.gotDate)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Code)
	require.Len(t, resp.Slots, 2)
	assert.True(t, resp.Slots[0].StartTime.Equal(start))
}

func TestGetSlots_EmptyListIsOK(t *testing.T) {
	provider := &fakeProvider{slots: []api.SlotResponse{}}

	rec := doRequest(t, provider, "/availability/slots?staff_id=staff-1&service_id=svc-1&date=2026-08-31")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotNil(t, resp.Slots)
	assert.Empty(t, resp.Slots)
}

func TestGetSlots_MissingParams(t *testing.T) {
	for _, url := range []string{
		"/availability/slots",
		"/availability/slots?staff_id=staff-1&service_id=svc-1",
		"/availability/slots?service_id=svc-1&date=2026-08-31",
		"/availability/slots?staff_id=staff-1&date=2026-08-31",
	} {
		t.Run(url, func(t *testing.T) {
			rec := doRequest(t, &fakeProvider{}, url)

			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp response.Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, string(response.BAD_REQUEST), resp.Code)
		})
	}
}

func TestGetSlots_InvalidDate(t *testing.T) {
	provider := &fakeProvider{err: fmt.Errorf("service: %w", response.ErrValidation)}

	rec := doRequest(t, provider, "/availability/slots?staff_id=staff-1&service_id=svc-1&date=31-08-2026")

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(response.VALIDATION), resp.Code)
}

func TestGetSlots_InternalError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("db down")}

	rec := doRequest(t, provider, "/availability/slots?staff_id=staff-1&service_id=svc-1&date=2026-08-31")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, string(response.FAILED_REQUEST), resp.Code)
}
