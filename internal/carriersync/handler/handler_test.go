package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"agentbook/internal/carriersync"
	"agentbook/internal/carriersync/handler/mocks"
	id "agentbook/pkg/domain"
	dErrors "agentbook/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/sync-mocks.go -package=mocks Service

func newTestHandler(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(mockService, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r, mockService
}

func TestHandleReconcile(t *testing.T) {
	router, mockService := newTestHandler(t)
	carrierID := id.CarrierID(uuid.New())

	members := []carriersync.PortalMember{{FirstName: "Alice", LastName: "Nguyen"}}
	mockService.EXPECT().
		RunSync(gomock.Any(), carrierID, "Devoted Health", members).
		Return(&carriersync.SyncResult{
			CarrierName: "Devoted Health",
			PortalCount: 1,
			Matched:     1,
			Disenrolled: []carriersync.SyncDisenrollment{},
			NewInPortal: []carriersync.PortalMember{},
		}, nil)

	body, err := json.Marshal(map[string]any{
		"carrier_name": "Devoted Health",
		"members":      members,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/sync/carriers/"+carrierID.String()+"/reconcile", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result carriersync.SyncResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "Devoted Health", result.CarrierName)
	assert.Equal(t, 1, result.Matched)
}

func TestHandleReconcileMissingCarrierName(t *testing.T) {
	router, _ := newTestHandler(t)
	carrierID := id.CarrierID(uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/sync/carriers/"+carrierID.String()+"/reconcile",
		bytes.NewReader([]byte(`{"members":[]}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleReconcileBadCarrierID(t *testing.T) {
	router, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/sync/carriers/not-a-uuid/reconcile",
		bytes.NewReader([]byte(`{"carrier_name":"X","members":[]}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSyncCarrier(t *testing.T) {
	router, mockService := newTestHandler(t)
	carrierID := id.CarrierID(uuid.New())

	session := carriersync.PortalSession{Cookies: map[string]string{"sid": "abc"}}
	mockService.EXPECT().
		SyncCarrier(gomock.Any(), carrierID, session).
		Return(&carriersync.SyncResult{CarrierName: "Humana"}, nil)

	body, err := json.Marshal(map[string]any{"session": session})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/sync/carriers/"+carrierID.String(), bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSyncCarrierPortalDown(t *testing.T) {
	router, mockService := newTestHandler(t)
	carrierID := id.CarrierID(uuid.New())

	mockService.EXPECT().
		SyncCarrier(gomock.Any(), carrierID, gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeUnavailable, "portal fetch failed"))

	req := httptest.NewRequest(http.MethodPost, "/sync/carriers/"+carrierID.String(),
		bytes.NewReader([]byte(`{"session":{}}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var envelope map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	assert.Equal(t, string(dErrors.CodeUnavailable), envelope["error"])
}

func TestHandleSyncAll(t *testing.T) {
	router, mockService := newTestHandler(t)

	mockService.EXPECT().
		SyncAll(gomock.Any(), gomock.Any()).
		Return(&carriersync.SyncAllOutcome{
			Results:  []*carriersync.SyncResult{{CarrierName: "Devoted Health"}},
			Failures: []carriersync.SyncFailure{{CarrierName: "Humana", Error: "portal 503"}},
		}, nil)

	req := httptest.NewRequest(http.MethodPost, "/sync/all",
		bytes.NewReader([]byte(`{"sessions":{"devoted":{},"humana":{}}}`)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var outcome carriersync.SyncAllOutcome
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&outcome))
	assert.Len(t, outcome.Results, 1)
	assert.Len(t, outcome.Failures, 1)
}

func TestHandleListLogs(t *testing.T) {
	router, mockService := newTestHandler(t)
	carrierID := id.CarrierID(uuid.New())
	name := "Devoted Health"

	mockService.EXPECT().
		GetSyncLogs(gomock.Any(), &carrierID).
		Return([]carriersync.SyncLogEntry{{
			ID:          id.SyncRunID(uuid.New()),
			CarrierID:   carrierID,
			CarrierName: &name,
			SyncedAt:    time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC),
			Status:      carriersync.SyncLogStatusCompleted,
		}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/sync/logs?carrier_id="+carrierID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var logs []carriersync.SyncLogEntry
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&logs))
	require.Len(t, logs, 1)
	assert.Equal(t, carrierID, logs[0].CarrierID)
}

func TestHandleListLogsBadFilter(t *testing.T) {
	router, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/sync/logs?carrier_id=junk", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
