// Package media renders slides as single images for the web surface.
//
// A slide's segments are vertical slices of a captured page. The Compositor
// downloads them in parallel, decodes them (JPEG, PNG, GIF, WebP, BMP),
// scales them to a common width and stacks them back into one JPEG. libvips
// is used for decode and scale when VIPS_ENABLED is set and the library
// initialises; the imaging path is always available as a fallback.
package media
