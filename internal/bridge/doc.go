// Package bridge defines the 11-position interpolation space between two
// anchor texts.
//
// Positions 0 and 10 are user-supplied anchors. Each derived position is the
// semantic blend of its two nearest already-known neighbors, producing a
// binary-subdivision schedule across four rounds (1, then 2, then 4, then 2
// positions). Blending two already-blended texts yields smoother transitions
// than asking a model for an arbitrary percentage mix directly, so the round
// table here is a genuine dependency graph, not just a priority order.
package bridge
