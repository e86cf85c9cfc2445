package reflection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sadhana-path/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingStore struct{}

func (failingStore) PromptFor(context.Context, time.Time) (*models.ReflectionPrompt, error) {
	return nil, errors.New("db down")
}

func (failingStore) SavePrompt(context.Context, *models.ReflectionPrompt) (*models.ReflectionPrompt, error) {
	return nil, errors.New("db down")
}

func TestHandler_Today(t *testing.T) {
	g := newTestGenerator(t, NewMockClient(), newMemStore())
	rec := httptest.NewRecorder()
	NewHandler(g, zap.NewNop()).Today(rec, httptest.NewRequest(http.MethodGet, "/reflections/today", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var p models.ReflectionPrompt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.NotEmpty(t, p.Prompt)
	assert.Equal(t, "test-model", p.ModelUsed)
}

func TestHandler_TodayStoreDown(t *testing.T) {
	g := newTestGenerator(t, NewMockClient(), failingStore{})
	rec := httptest.NewRecorder()
	NewHandler(g, zap.NewNop()).Today(rec, httptest.NewRequest(http.MethodGet, "/reflections/today", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
