// Package registry owns the per-manager registration state: wallet backends
// keyed by blockchain (instantiated lazily and memoized), and protocol
// registrations keyed by blockchain and label.
package registry
