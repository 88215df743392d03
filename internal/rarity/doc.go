// Package rarity implements attribute resolution for one collection item.
//
// A Model is an ordered list of layers. Each layer carries an Attribute,
// which is either a flat weighted Table or a Conditional set of rules keyed
// by parsed Conditions over layers resolved earlier in the same item.
//
// ARCHITECTURE:
//
// Resolver walks the layers in order and samples one value per layer. Layer
// order is the dependency direction: a condition may only look at layers
// that come before it.
//
// Guard wraps the Resolver with a bounded re-roll loop that keeps every
// emitted set distinct. Its GeneratedRolls pool is owned by one batch run
// and passed in explicitly; there is no package-level state.
//
// GuaranteedSchedule places pre-specified sets at evenly spaced indices,
// bypassing sampling and the uniqueness check.
package rarity
