// Package scheduler runs the background jobs: pushing unsaved ledger state to
// the remote store on a fixed cadence and rebuilding the cash-flow ledger
// nightly.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"stockbook/internal/config"
	"stockbook/internal/service/finance"
	"stockbook/internal/service/ledger"
	syncsvc "stockbook/internal/service/sync"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron    *cron.Cron
	cfg     config.SyncConfig
	ledger  *ledger.Service
	orch    *syncsvc.Orchestrator
	finance *finance.Rebuilder
	logger  *zap.Logger
}

// New creates a scheduler around the ledger, sync, and finance services.
func New(cfg config.SyncConfig, ledgerSvc *ledger.Service, orch *syncsvc.Orchestrator, rebuilder *finance.Rebuilder, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(),
		cfg:     cfg,
		ledger:  ledgerSvc,
		orch:    orch,
		finance: rebuilder,
		logger:  logger,
	}
}

// Start registers and launches the jobs.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler",
		zap.String("autosave", s.cfg.AutoSaveSchedule),
		zap.String("cashflow", s.cfg.CashFlowSchedule))

	if _, err := s.cron.AddFunc(s.cfg.AutoSaveSchedule, s.autoSave); err != nil {
		s.logger.Error("failed to schedule auto-save", zap.Error(err))
	}
	if _, err := s.cron.AddFunc(s.cfg.CashFlowSchedule, s.rebuildCashFlows); err != nil {
		s.logger.Error("failed to schedule cash-flow rebuild", zap.Error(err))
	}

	s.cron.Start()
}

// Stop halts the cron loop.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

// autoSave persists the document when local mutations are pending. A save
// conflict is only logged: overwriting a concurrent edit is a user decision,
// not something a background job should make.
func (s *Scheduler) autoSave() {
	if !s.ledger.Dirty() {
		return
	}
	if s.orch.Status().State != syncsvc.StateConnected {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	doc, gen := s.ledger.Snapshot()
	commit, err := s.orch.SaveData(ctx, doc, "Auto-save pending changes")
	if err != nil {
		s.logger.Error("auto-save failed", zap.Error(err))
		return
	}
	s.ledger.MarkSaved(gen)
	s.logger.Info("auto-save complete", zap.String("commit", commit.CommitSHA))
}

func (s *Scheduler) rebuildCashFlows() {
	doc, _ := s.ledger.Snapshot()
	flows := s.finance.Rebuild(finance.Input{
		Containers:     doc.Containers,
		Sales:          doc.Sales,
		Expenses:       doc.Expenses,
		Withdrawals:    doc.Withdrawals,
		CashInjections: doc.CashInjections,
	})
	s.ledger.ReplaceCashFlows(flows)
	s.logger.Info("nightly cash-flow rebuild complete", zap.Int("days", len(flows)))
}
