// Package modules holds the module enablement registry and the contract
// every feature module implements.
//
// The Registry is a write-once-then-replace cell: readers that arrive before
// the first Load or Set park on a channel that is closed exactly once, and
// from then on always see a complete flags map.
package modules
