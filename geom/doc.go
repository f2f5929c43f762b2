// Package geom holds the physical models a refinement run adjusts: the
// incident beam, a single-panel area detector, the crystal (orientation and
// reciprocal cell), the goniometer rotation axis and the rotation scan.
//
// Models are plain mutable structs in the laboratory frame. Distances are
// millimetres, angles radians, wavelengths Ångström; reciprocal-space
// lengths are 1/Å. Parameterisations in package param own pointers into
// these models and write composed state back, so a finished refinement
// leaves the models themselves carrying the refined geometry.
//
// The package also provides the small dense-3x3 helpers (axis-angle
// rotation, skew matrix, matrix-vector application) shared by the
// parameterisations and the prediction chain.
//
// Construction:
//
//	beam, err := geom.NewBeam(r3.Vec{Z: -1}, 1.0)
//	panel, err := geom.NewPanel(geom.PanelConfig{...})
//	xtal, err := geom.NewCrystalFromCell(a, b, c) // real-space cell vectors
//
// None of these types are safe for concurrent mutation; an Experiment and
// everything it references belong to exactly one refinement run at a time.
package geom
