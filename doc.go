// Package meshrecon reconstructs usable meshes from the raw element output
// of a tetrahedralization or triangulation engine.
//
// The central operation is shell extraction: tetrahedra are filtered by
// quality, their faces are counted by canonical key and the faces seen
// exactly once form the closed boundary surface, which is then compacted
// and consistently oriented. Meshes made of several engine entities are
// first merged into a single global vertex index space.
package meshrecon
