package perf

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/betterfly/betterfly/internal/app"
	"github.com/betterfly/betterfly/internal/platform/kv"
	"github.com/betterfly/betterfly/internal/progress"
	"github.com/betterfly/betterfly/internal/users"
)

func newRouter(t testing.TB) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	cfg := &app.Config{
		StoreDriver:        kv.DriverMemory,
		RedisAddr:          mr.Addr(),
		RateLimitPerMinute: 1_000_000,
		BcryptCost:         4,
		ReminderTimezone:   "UTC",
		AppRequestTimeout:  5 * time.Second,
	}
	require.NoError(t, cfg.Validate())
	c, err := app.NewContainer(cfg, nil, kv.NewMemoryStore())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return app.NewRouter(c.RouterParams())
}

func do(h http.Handler, method, path, body string) int {
	res := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "10.1.1.1:5000"
	h.ServeHTTP(res, req)
	return res.Code
}

func TestCompleteLessonLatencyBudget(t *testing.T) {
	router := newRouter(t)
	require.Equal(t, http.StatusCreated, do(router, http.MethodPost, "/auth/register", `{"username":"Perf","email":"perf@example.com","password":"secret1"}`))

	samples := make([]time.Duration, 0, 200)
	for i := 0; i < 200; i++ {
		start := time.Now()
		code := do(router, http.MethodPost, "/progress/complete", `{"durationMinutes":7.5,"categoryId":"relaxation"}`)
		samples = append(samples, time.Since(start))
		require.Equal(t, http.StatusOK, code)
	}

	if p95 := percentile95(samples); p95 > 250*time.Millisecond {
		t.Fatalf("complete lesson latency regression: p95=%s", p95)
	}
}

func BenchmarkCompleteLessonEngine(b *testing.B) {
	user := users.New("Bench", "bench@example.com", "x")
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		updated, _, err := progress.CompleteLesson(user, 12.5, "sleep", "2024-01-01")
		if err != nil {
			b.Fatal(err)
		}
		user = updated
	}
}

func BenchmarkCatalogEndpoint(b *testing.B) {
	router := newRouter(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if code := do(router, http.MethodGet, "/catalog/sessions", ""); code != http.StatusOK {
			b.Fatalf("status %d", code)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	return sorted[index]
}
