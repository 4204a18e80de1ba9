package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/roach88/caseintake/internal/engine"
	"github.com/roach88/caseintake/internal/harness"
	"github.com/roach88/caseintake/internal/metrics"
	"github.com/roach88/caseintake/internal/store"
)

// session bundles the collaborators a command needs against one case log.
type session struct {
	store    *store.Store
	engine   *engine.Engine
	registry *prometheus.Registry
	logger   *zap.Logger
}

type sessionConfig struct {
	database      string
	rules         string
	referenceData string
	now           func() time.Time
	ids           engine.IDGenerator
}

// openSession opens the case log and builds an engine over it. Empty paths
// fall back to the loaded configuration.
func openSession(o *RootOptions, sc sessionConfig) (*session, error) {
	if err := o.setup(); err != nil {
		return nil, err
	}

	dbPath := firstNonEmpty(sc.database, o.Config.Database)
	o.Logger.Debug("opening database", zap.String("path", dbPath))
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	deps, err := harness.Deps(
		firstNonEmpty(sc.rules, o.Config.Rules),
		firstNonEmpty(sc.referenceData, o.Config.ReferenceData),
		sc.now,
	)
	if err != nil {
		_ = st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to load intake configuration", err)
	}

	reg := prometheus.NewRegistry()
	engOpts := []engine.Option{
		engine.WithLogger(o.Logger),
		engine.WithMetrics(metrics.New(reg)),
	}
	if sc.ids != nil {
		engOpts = append(engOpts, engine.WithIDGenerator(sc.ids))
	}

	return &session{
		store:    st,
		engine:   engine.New(st, deps, engOpts...),
		registry: reg,
		logger:   o.Logger,
	}, nil
}

// openLog opens the case log without an engine, for read-only commands.
func openLog(o *RootOptions, database string) (*store.Store, error) {
	if err := o.setup(); err != nil {
		return nil, err
	}
	st, err := store.Open(firstNonEmpty(database, o.Config.Database))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func (s *session) Close() {
	s.engine.Stop()
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing database", zap.Error(err))
	}
}

// commandOutcomes sums caseintake_commands_total by outcome label.
func (s *session) commandOutcomes() map[string]int {
	out := make(map[string]int)
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.Warn("failed to gather metrics", zap.Error(err))
		return out
	}
	for _, mf := range families {
		if mf.GetName() != "caseintake_commands_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" {
					out[lp.GetValue()] += int(m.GetCounter().GetValue())
				}
			}
		}
	}
	return out
}

// commandContext returns the command's context, cancelled on SIGINT or
// SIGTERM.
func commandContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
