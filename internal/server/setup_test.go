package server_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zaptest"

	"github.com/Tyrowin/roomchat/internal/channel"
	"github.com/Tyrowin/roomchat/internal/config"
	"github.com/Tyrowin/roomchat/internal/metrics"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/Tyrowin/roomchat/internal/testhelpers"
)

// fixedClock is the time every test message is stamped with.
var fixedClock = time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC)

type testEnv struct {
	srv      *server.Server
	http     *httptest.Server
	manager  *channel.Manager
	registry *prometheus.Registry
	wsURL    string
}

// startTestServer runs a full server on an httptest listener. customize may
// adjust the configuration before anything is built.
func startTestServer(t *testing.T, customize func(cfg *config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	if customize != nil {
		customize(cfg)
	}

	log := zaptest.NewLogger(t)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	manager := channel.NewManager(channel.Options{
		HistoryEnabled: cfg.HistoryEnabled,
		HistoryLimit:   cfg.HistoryLimit,
		Logger:         log.Named("channel"),
		Metrics:        m,
		Clock:          func() time.Time { return fixedClock },
	})

	srv, err := server.New(cfg, manager, m, reg, log.Named("server"))
	if err != nil {
		t.Fatalf("server.New() error = %v", err)
	}
	go srv.Hub().Run()

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		_ = srv.Hub().Shutdown(5 * time.Second)
		ts.Close()
	})

	return &testEnv{
		srv:      srv,
		http:     ts,
		manager:  manager,
		registry: reg,
		wsURL:    testhelpers.WebSocketURL(ts.URL),
	}
}

// metricValue returns the summed value of every series of the named counter or gauge.
func (e *testEnv) metricValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := e.registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if c := metric.GetCounter(); c != nil {
				total += c.GetValue()
			}
			if g := metric.GetGauge(); g != nil {
				total += g.GetValue()
			}
		}
	}
	return total
}

func (e *testEnv) waitMembers(t *testing.T, room string, want int) {
	t.Helper()
	testhelpers.Eventually(t, 2*time.Second, func() bool {
		return e.manager.Members(room) == want
	}, room+" member count")
}
