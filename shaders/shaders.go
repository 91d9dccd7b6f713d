// Package shaders holds the GLSL sources of the mesh pipeline. Run go
// generate with glslc on the PATH to produce the vert.spv and frag.spv files
// scop loads at startup.
package shaders

//go:generate glslc shader.vert -o vert.spv
//go:generate glslc shader.frag -o frag.spv
