// Package retention prunes stored generation records.
//
// A Pruner deletes records older than RetentionDays and then trims the
// oldest records until at most MaxRecords remain. Its Scheduler runs
// Prune on a standard cron expression:
//
//	pruner := retention.NewPruner(store, retention.FromConfig(cfg.Storage.Retention),
//	    retention.WithMetrics(collector))
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
package retention
