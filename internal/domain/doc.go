// Package domain defines the core entities shared across the ingestion
// pipeline: companies, leads, their status/tier enums, and the upload
// outcome counters.
//
// Entities here carry no persistence or transport concerns. Repository
// implementations live in repository/postgres/; normalization of raw
// input into these types lives in ingest/.
package domain
