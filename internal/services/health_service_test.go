package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"etfseasonal/internal/shared/testutil"
)

func TestHealthService_ReadinessCheck(t *testing.T) {
	ctx := context.Background()
	logger, _ := testutil.NewTestLogger(t)

	t.Run("ready", func(t *testing.T) {
		loc := new(MockResolver)
		loc.On("Categories").Return([]string{"ETF_sector", "ETF_bond"})
		loc.On("Tickers", mock.Anything, "ETF_sector").Return([]string{"XLB", "XLK"})
		loc.On("Tickers", mock.Anything, "ETF_bond").Return([]string{})
		loc.On("Cached").Return(3)
		clients := new(MockClientCounter)
		clients.On("ClientCount").Return(2)

		hs := NewHealthService("1.0.0", "", loc, clients, logger)
		status := hs.ReadinessCheck(ctx)

		assert.Equal(t, "ready", status.Status)
		require.Contains(t, status.Services, "dataset")
		assert.Equal(t, "2 tickers, 3 collections cached", status.Services["dataset"].Message)
		assert.Equal(t, "2 clients connected", status.Services["websocket"].Message)
		loc.AssertExpectations(t)
		clients.AssertExpectations(t)
	})

	t.Run("no tickers", func(t *testing.T) {
		loc := new(MockResolver)
		loc.On("Categories").Return([]string{"ETF_sector"})
		loc.On("Tickers", mock.Anything, "ETF_sector").Return([]string{})

		status := NewHealthService("1.0.0", "", loc, nil, logger).ReadinessCheck(ctx)
		assert.Equal(t, "not_ready", status.Status)
		assert.Equal(t, "not_ready", status.Services["dataset"].Status)
	})

	t.Run("no locator", func(t *testing.T) {
		status := NewHealthService("1.0.0", "", nil, nil, logger).ReadinessCheck(ctx)
		assert.Equal(t, "not_ready", status.Status)
	})
}

func TestHealthService_Probes(t *testing.T) {
	ctx := context.Background()
	hs := NewHealthService("1.2.3", "2024-03-01T00:00:00Z", nil, nil, nil)

	assert.Equal(t, "ok", hs.HealthCheck(ctx).Status)

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, "1.2.3", v["version"])
	assert.Equal(t, "2024-03-01T00:00:00Z", v["build_time"])
}

type fakeHub struct{}

func (fakeHub) ClientCount() int { return 1 }

func (fakeHub) GetHubMetrics() map[string]interface{} {
	return map[string]interface{}{"messages_sent": 4, "messages_received": 3}
}

func TestHealthService_WebSocketStats(t *testing.T) {
	loc := new(MockResolver)
	loc.On("Categories").Return([]string{})

	status := NewHealthService("1.0.0", "", loc, fakeHub{}, nil).ReadinessCheck(context.Background())
	assert.Equal(t, "1 clients connected, 4 messages sent, 3 received", status.Services["websocket"].Message)
}
