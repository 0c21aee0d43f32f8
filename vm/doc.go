// Package vm implements the Kestrel ActionScript object model.
//
// This package contains:
//   - Tagged script values and their conversions
//   - The interned string table and property keys (ObjectURI)
//   - The ordered property store with accessors and version gating
//   - Objects, prototype chains, super proxies and watch triggers
//   - Native function calls and the mark-and-sweep resource collector
package vm
