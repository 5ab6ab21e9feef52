// Package gpu holds the collaborators a scene needs to mirror its data
// to a compute/render backend: interned strings and buffer allocations.
package gpu
