// Package cleaners contains the built-in cleaning routines. A
// cleaning routine types and validates one parsed table; recipes
// select routines by ID through the cleaner registry, so adding a
// format never touches the transform worker.
package cleaners
