// Package main hosts the harvester service entrypoint.
//
// Architecture overview:
//   - Pipeline: internal/pipeline owns two unbounded queues (requests and fetch results) drained by two
//     fixed worker pools sized by config.Pipeline. Fetch workers call the Colly fetcher; parse workers
//     route each result by category through the frozen internal/registry to a parser.
//   - Parsers: internal/sites/election registers BBC and CNN list/search and detail parsers. List and
//     search parsers send follow-on detail requests carrying the passthrough context; detail parsers
//     extract articles and save them to the configured sink (memory, Postgres, or Pub/Sub).
//   - Retries: a result that fails its parser's success check is resubmitted unchanged. With
//     pipeline.max_attempts at 0 this repeats forever.
//   - HTTP API: internal/api.Server exposes health, readiness, Prometheus metrics, stats, categories,
//     and a POST endpoint for seeding requests by hand.
//
// Operational notes:
//   - On SIGINT/SIGTERM the pipeline stops accepting sends and drains in-flight work for up to
//     server.shutdown_timeout_seconds before the workers are stopped; /readyz reports 503 meanwhile.
//   - Configure with a YAML file (-config) or HARVESTER_* env vars, e.g. HARVESTER_SINK_PROVIDER=postgres
//     and HARVESTER_SINK_POSTGRES_DSN.
//   - Run locally: go run ./cmd/harvester -config config.yaml
package main
