// Package domain defines the core entities of the task lifecycle engine:
// task records, execution results, their status enums, and the content
// identifier used for duplicate detection. It has no dependencies on
// storage, transport, or scheduling concerns.
package domain
