// Package compositor stacks an item's layer images into its final PNG.
//
// Pixel work is delegated to an external tool through the Stacker
// interface. MagickStacker drives ImageMagick; tests substitute a
// recording stacker. The compositor itself only resolves asset paths and
// never inspects image data.
package compositor
