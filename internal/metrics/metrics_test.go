package metrics_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/scripthost/internal/metrics"
	"github.com/aretw0/scripthost/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Hooks(t *testing.T) {
	c := metrics.New()
	h := c.Hooks()
	ctx := context.Background()

	h.OnScriptStart(ctx, &domain.ScriptEvent{Script: "a"})
	h.OnScriptStart(ctx, &domain.ScriptEvent{Script: "a"})
	h.OnScriptAbort(ctx, &domain.ScriptEvent{Script: "a", Reason: domain.AbortHang})
	h.OnTick(ctx, &domain.TickEvent{Domain: "d", Running: 3, Tasks: 2, Duration: time.Millisecond})
	h.OnKeyEvent(ctx, domain.KeyEvent{Key: domain.KeyA, Down: true})
	c.Reloaded()

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	assert.Len(t, families, 7)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, `scripthost_scripts_started_total{script="a"} 2`)
	assert.Contains(t, body, `scripthost_scripts_aborted_total{reason="hang",script="a"} 1`)
	assert.Contains(t, body, `scripthost_scripts_running{domain="d"} 3`)
	assert.Contains(t, body, `scripthost_host_tasks_total{domain="d"} 2`)
	assert.Contains(t, body, `scripthost_key_events_total{direction="down"} 1`)
	assert.Contains(t, body, `scripthost_reloads_total 1`)
}

func TestCollector_NilIsSafe(t *testing.T) {
	var c *metrics.Collector
	c.Reloaded()
	h := c.Hooks()
	assert.Nil(t, h.OnTick)
	assert.Nil(t, c.Registry())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
