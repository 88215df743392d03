package ir

// Version constants for the on-disk formats.
const (
	// FingerprintVersion is embedded in the fingerprint domain prefix.
	FingerprintVersion = "1"

	// GeneratorVersion is reported by resin --version.
	GeneratorVersion = "0.1.0"
)
