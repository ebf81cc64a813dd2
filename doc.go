// Package glgrid implements a zoomable grid overlay fragment shader as a
// pure Go function, alongside generation of the equivalent GLSL source.
//
// The shader renders a grid on top of a textured quad: for every pixel it
// decides whether the pixel falls on a grid line given a fixed cell size,
// a pixel-space offset and a logarithmic zoom, and outputs either the
// sampled texture color or transparent black. Off-line pixels being fully
// transparent lets a host compositor treat the result as a punch-through
// mask when blending is enabled; with blending disabled they come out
// opaque black, which is the host's problem to avoid.
//
// Two inputs of the fragment interface, the diffuse tint uniform and the
// interpolated vertex color, are accepted but never factor into the output.
// This mirrors the shader this package reproduces. Whether they should is a
// product decision; do not wire them in without one.
package glgrid
