// Package surface is the in-memory graph surface: the rendered element set mirrored
// from the simulation, its radial layout, style rules, highlight classes and tap feed.
package surface
