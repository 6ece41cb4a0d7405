// Package scheduler contains the periodic control loops: backlog
// replenishment, execution-result reconciliation, and completed-task
// archiving, plus the cron wiring and shared run-state they report
// through the status view.
package scheduler
