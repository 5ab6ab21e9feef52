// Package scene implements scene graph transforms whose local matrix is
// an ordered list of named translate/rotate/scale operations.
//
// A Compound owns its components. Editing a component through its typed
// setters re-flattens the whole list into the compound's Mirror, flags it
// dirty and, when an allocation is bound, uploads the encoded record at
// offset 0 before the setter returns. Nothing in this package is safe for
// concurrent use; one goroutine is expected to drive all mutation.
package scene
