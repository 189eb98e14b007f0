// Package middleware provides HTTP middleware for navstack servers.
//
// This package includes:
//   - OpenTelemetry distributed tracing middleware
//   - Prometheus metrics middleware
//
// Both are plain func(http.Handler) http.Handler wrappers and compose with
// chi's Use:
//
//	r := chi.NewRouter()
//	r.Use(middleware.Prometheus())
//	r.Use(middleware.OpenTelemetry())
//
// Then expose metrics:
//
//	r.Handle("/metrics", promhttp.Handler())
package middleware
