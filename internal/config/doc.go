// Package config decodes resin configuration documents.
//
// A document is JSON (or YAML for .yaml/.yml files) with camelCase fields.
// The attributes block is decoded in document order: layer declaration
// order is the default resolution order, and condition keys inside a layer
// are evaluated in the order they are written.
//
// This package only decodes. Structural validation against the CUE schema
// and semantic compilation into a rarity model live in package compiler.
package config
