// Package model defines the domain types and value objects for the
// mdrun CLI.
//
// This package contains pure data structures with no external
// dependencies. A Block is one shell-tagged fenced code block lifted
// out of a markdown document; a BlockResult records how executing that
// block went; a Report aggregates the results of one ordered run.
// Nothing here is mutated after construction and nothing persists
// between runs — every invocation rebuilds its state from the document
// text.
//
// The package also defines exit codes (ExitCode) and a custom error
// type (CLIError) that carries exit codes for proper OS process exit
// handling.
package model
