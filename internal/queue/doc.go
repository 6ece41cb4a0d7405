// Package queue abstracts publishing task batches to the external message
// queue. The engine treats publish as a best-effort call: it either
// succeeds for the whole batch or fails, with no delivery guarantee beyond
// that. The production implementation enqueues via asynq on Redis.
package queue
