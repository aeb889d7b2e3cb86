// Package api defines the core data types for the plan execution engine
//
// This package contains all the shared types used across the service,
// including plan steps, tool results, aggregated views, progress events, and
// HTTP messages
package api
