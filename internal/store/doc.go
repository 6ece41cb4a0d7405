// Package store defines the persistence interfaces consumed by the engine:
// TaskStore over the durable task table and ResultStore over the execution
// backend's result table. Implementations live under platform packages
// (see internal/platform/postgres); services and scheduler jobs depend
// only on the interfaces here.
package store
