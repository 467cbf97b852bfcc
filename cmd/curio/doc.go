// Package main hosts the Curio CLI entrypoint and command graph.
//
// Each invocation resolves configuration, opens the library service (which
// locks the data directory for the duration of the command), performs one
// operation, and exits. Listings and item views render as tables; most read
// commands also accept --json for scripting.
//
// Keep this package lean: behaviour belongs in internal/library and the
// packages beneath it, with commands here limited to flag parsing and
// presentation.
package main
