// Package postgres implements the store interfaces over PostgreSQL using
// database/sql with the pgx driver. The task table is the engine's system
// of record; the result table is the execution backend's drop box, which
// the reconciliation job reads and drains.
package postgres
