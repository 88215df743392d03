// Package ir provides the canonical representation of resolved attribute sets.
//
// This package contains value types only. All other internal packages import
// ir; ir imports nothing internal, so it stays the foundational layer with no
// circular dependencies.
//
// Key constraints:
//   - An AttributeSet is ordered by layer declaration order, never sorted
//   - Values keep their asset file extension; DisplayValue strips it for output
//   - Layer names starting with MetaPrefix are meta layers
//   - Fingerprints are computed from canonical JSON (NFC, no HTML escaping)
package ir
