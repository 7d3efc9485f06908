// Package cli holds the helpers shared by the vatfiler commands: error
// types that map onto exit codes, a small client for a running server,
// browser launching, the connection wait spinner and table rendering.
package cli
