// Package timeouts defines shared timeout constants used across services.
// Centralizing these values prevents drift between service boundaries and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// StoreOpen caps connection and ping time when opening a backing store.
const StoreOpen = 5 * time.Second

// Command caps a single membership command, including its conflict retries.
const Command = 10 * time.Second

// CascadeTask caps one queued cascade resume executed by a worker.
const CascadeTask = 30 * time.Second
