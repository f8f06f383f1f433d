// Package grid defines the 11x11 adjective coordinate plane and its ring
// geometry.
//
// Coordinates range over [-5,5] on both axes; a coordinate's ring is its
// Chebyshev distance from the origin. Rings order generation from the center
// outward. Every cell derives independently from the original text and the
// two adjectives, so rings are a priority, not a data dependency.
package grid
