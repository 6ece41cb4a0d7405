// Package service implements the request-triggered operations of the task
// lifecycle engine: deduplicated ingestion, priority injection, and bulk
// status mutation. Services depend on the store and queue interfaces and
// are safe to call concurrently with the periodic loops.
package service
