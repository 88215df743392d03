// Package metadata writes and reads per-item metadata records.
//
// Each item gets two records. The public record at <out>/<index>.json
// follows the marketplace layout: meta traits are dropped and values are
// shown without their file extension. The side-channel record at
// <out>/.resin/<index>.json keeps every trait with its raw value so the
// compositor can locate asset files exactly.
package metadata
