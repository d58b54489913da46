package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/attendly/faceclock/internal/domain"
	"github.com/attendly/faceclock/internal/settings"
)

// MockSettingsManager is a mock implementation of SettingsManager
type MockSettingsManager struct {
	mock.Mock
}

func (m *MockSettingsManager) Snapshot() settings.Values {
	args := m.Called()
	return args.Get(0).(settings.Values)
}

func (m *MockSettingsManager) Update(ctx context.Context, patch settings.Patch) (settings.Values, error) {
	args := m.Called(ctx, patch)
	return args.Get(0).(settings.Values), args.Error(1)
}

func TestSettingsHandler_Get(t *testing.T) {
	mockManager := &MockSettingsManager{}
	mockManager.On("Snapshot").Return(settings.Values{
		MatchThreshold:     0.8,
		DuplicateThreshold: 0.75,
		Cooldown:           10 * time.Second,
		MinConfidence:      0.85,
	})

	h := NewSettingsHandler(mockManager, testLogger())
	app := newTestApp()
	app.Get("/v1/settings", h.Get)

	req := httptest.NewRequest("GET", "/v1/settings", nil)
	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body SettingsResponse
	respBody, _ := io.ReadAll(resp.Body)
	assert.NoError(t, json.Unmarshal(respBody, &body))
	assert.Equal(t, 0.8, body.MatchThreshold)
	assert.Equal(t, 10, body.CooldownSeconds)

	mockManager.AssertExpectations(t)
}

func TestSettingsHandler_Update(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockSettingsManager)
		expectedStatus int
		checkResponse  func(t *testing.T, body []byte)
	}{
		{
			name: "partial update applied",
			body: `{"match_threshold": 0.9}`,
			setupMock: func(m *MockSettingsManager) {
				m.On("Update", mock.Anything, mock.MatchedBy(func(p settings.Patch) bool {
					return p.MatchThreshold != nil && *p.MatchThreshold == 0.9 && p.CooldownSeconds == nil
				})).Return(settings.Values{
					MatchThreshold:     0.9,
					DuplicateThreshold: 0.75,
					Cooldown:           5 * time.Second,
					MinConfidence:      0.8,
				}, nil)
			},
			expectedStatus: 200,
			checkResponse: func(t *testing.T, body []byte) {
				var resp SettingsResponse
				assert.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, 0.9, resp.MatchThreshold)
				assert.Equal(t, 5, resp.CooldownSeconds)
			},
		},
		{
			name: "out of range threshold",
			body: `{"duplicate_threshold": 1.5}`,
			setupMock: func(m *MockSettingsManager) {
				m.On("Update", mock.Anything, mock.Anything).Return(settings.Values{}, domain.ErrInvalidThreshold)
			},
			expectedStatus: 422,
		},
		{
			name:           "malformed body",
			body:           `{"match_threshold": `,
			setupMock:      func(m *MockSettingsManager) {},
			expectedStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockManager := &MockSettingsManager{}
			tt.setupMock(mockManager)

			h := NewSettingsHandler(mockManager, testLogger())
			app := newTestApp()
			app.Patch("/v1/settings", h.Update)

			req := httptest.NewRequest("PATCH", "/v1/settings", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.checkResponse != nil {
				respBody, _ := io.ReadAll(resp.Body)
				tt.checkResponse(t, respBody)
			}

			mockManager.AssertExpectations(t)
		})
	}
}
