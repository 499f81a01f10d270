// Package domain contains the core entities of the Skema pipeline:
// content hashes, manifest records, format recipes, parsed tables and
// the sentinel errors shared across all layers. It has no dependencies
// on adapters or services.
package domain
