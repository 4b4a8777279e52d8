// Package api hosts the admin HTTP server. Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes; readyz fails while the
//     pipeline drains.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/stats and /v1/categories for operator inspection.
//   - POST /v1/requests to seed a work request by hand.
package api
