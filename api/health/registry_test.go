package health

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	details interface{}
	err     error
}

func (s stubChecker) HealthCheck(context.Context) (interface{}, error) {
	return s.details, s.err
}

func TestRegistryAllHealthy(t *testing.T) {
	reg := NewRegistry()
	reg.Register("cas", stubChecker{details: map[string]interface{}{"objects": 3}})
	reg.Register("wire", stubChecker{})

	report := reg.Run(context.Background())
	require.True(t, report.Healthy)
	require.Len(t, report.Checks, 2)
	require.Equal(t, map[string]interface{}{"objects": 3}, report.Checks[0].Details)
}

func TestRegistryOneUnhealthyFailsOverall(t *testing.T) {
	reg := NewRegistry()
	reg.Register("cas", stubChecker{})
	reg.Register("wire", stubChecker{err: errors.New("peer dead")})

	report := reg.Run(context.Background())
	require.False(t, report.Healthy)
	require.False(t, report.Checks[1].Healthy)
	require.Equal(t, "peer dead", report.Checks[1].Error)
}

func TestHandlerReturns503WhenUnhealthy(t *testing.T) {
	reg := NewRegistry()
	reg.Register("wire", stubChecker{err: errors.New("down")})

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	Handler(reg)(rec, req)

	require.Equal(t, 503, rec.Code)
}

func TestHandlerReturns200WhenHealthy(t *testing.T) {
	reg := NewRegistry()
	reg.Register("wire", stubChecker{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	Handler(reg)(rec, req)

	require.Equal(t, 200, rec.Code)
}
