// Package checkpoint houses concrete implementations of the
// core.CheckpointStore contract. The interface itself lives in the core
// package to centralize domain contracts; keeping only implementations here
// prevents higher level packages (router, isolation) from depending on
// concrete storage.
//
// Add additional backends (Redis, Firestore, etc.) in sub-packages without
// changing any calling code; only the wiring layer decides which
// implementation to instantiate.
package checkpoint
