package domain

// Classification is a successful format match plus the diagnostics
// needed to understand it and to build new catalog entries offline.
type Classification struct {
	// Recipe is the matched catalog entry.
	Recipe *FormatRecipe

	// Fingerprint is the digest that matched.
	Fingerprint string

	// Encoding is the text encoding that decoded the file prefix.
	Encoding string

	// HeaderLine is the zero-based line index of the header.
	HeaderLine int

	// HeaderText is the raw header line before normalisation.
	HeaderText string
}
