// Package services contains the core pipeline logic: the ingestion
// traversal, the format classifier, the transform worker, the
// orchestrator and the cleaner registry. Services depend only on the
// domain and the driven ports.
package services
