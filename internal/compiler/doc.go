// Package compiler turns a decoded configuration into a rarity model.
//
// Compilation runs in two passes. ValidateSchema checks the raw document
// against the embedded CUE schema and reports structural problems with
// source positions. Compile then performs the semantic checks the schema
// cannot express (layer order, condition references, fallback ambiguity,
// guaranteed roll shape) and builds the rarity.Model the resolver samples.
//
// Compile reports every problem it finds rather than stopping at the first,
// so `resin validate` can list them all. Individual errors are
// *rarity.ConfigError values joined with errors.Join; use Flatten to
// iterate them.
package compiler
