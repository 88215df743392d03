// Package scaffold creates starter asset folders and configs.
//
// Create writes an example config and a placeholder asset. FromExisting
// scans an asset folder laid out as <layer>/<file> and writes a config
// that gives every file the same weight.
package scaffold
