// Package ingest turns uploaded spreadsheet files into staged candidate
// records ready for reconciliation.
//
// The pipeline is: raw bytes -> Tokenize/ParseSheet -> RawRow ->
// AutoMap/FieldMapping -> Normalizer -> Candidate -> Session (staged in
// Redis until the caller commits). Every step up to the session is a
// pure function of its inputs; nothing here touches durable storage.
package ingest
