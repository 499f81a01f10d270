// Package driven defines the interfaces the core services depend on:
// content, manifest and table stores, parsers, cleaning routines and
// the catalog loader. Adapters implement these.
package driven
