// Package lifecycle drives module startup, shutdown and call routing.
//
// The Coordinator loads settings and module flags, starts enabled modules in
// a fixed order (stopping at the first failure), stops them again in the same
// order on shutdown (continuing past failures), and routes feature calls to
// their owning module. The Service wraps a Coordinator together with the
// auxiliary HTTP servers for the long-running process.
package lifecycle
