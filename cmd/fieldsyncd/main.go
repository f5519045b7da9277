// Command fieldsyncd runs the FieldSync offline-first sync daemon: it
// opens the local store, migrates it, and keeps draining the mutation
// queue against the remote API until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/tradeos/fieldsync/internal/config"
	"github.com/tradeos/fieldsync/internal/logging"
	"github.com/tradeos/fieldsync/internal/monitor"
	"github.com/tradeos/fieldsync/internal/processor"
	"github.com/tradeos/fieldsync/internal/store"
	"github.com/tradeos/fieldsync/internal/syncq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.L().WithError(err).Fatal("invalid configuration")
	}

	logging.Init(os.Stdout, cfg.LogLevel)
	log := logging.L()

	db, err := store.Open(cfg.DataDir)
	if err != nil {
		log.WithError(err).Fatal("failed to open local store")
	}
	defer db.Close()

	if err := store.Migrate(db.DB); err != nil {
		log.WithError(err).Fatal("failed to migrate local store")
	}

	st := store.New(db.DB, log)
	queue := syncq.New(db.DB, log)

	var mon *monitor.Monitor
	proc := processor.New(st, queue, processor.ConnectivityFunc(func() bool {
		return mon.Online()
	}), processor.Config{
		BaseURL: cfg.RemoteBaseURL,
		Timeout: cfg.HTTPTimeoutDuration(),
	}, log)
	mon = monitor.New(proc, cfg.SyncIntervalDuration(), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon.Start(ctx)
	mon.TriggerSync(ctx)

	log.WithFields(logrus.Fields{
		"data_dir": cfg.DataDir,
		"remote":   cfg.RemoteBaseURL,
	}).Info("fieldsyncd running")

	<-ctx.Done()
	mon.Stop()
}
