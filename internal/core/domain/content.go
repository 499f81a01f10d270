package domain

// RawContent is an immutable raw byte payload held by the content
// store. It is created once per unique byte sequence and never mutated
// or deleted during a run. Manifest records reference it by hash
// rather than duplicating the bytes.
type RawContent struct {
	// Hash is the content digest and primary key.
	Hash Hash

	// Bytes is the raw payload.
	Bytes []byte

	// Size is len(Bytes), persisted for cheap inspection.
	Size int64
}

// NewRawContent hashes the given bytes and wraps them.
func NewRawContent(data []byte) RawContent {
	return RawContent{
		Hash:  HashBytes(data),
		Bytes: data,
		Size:  int64(len(data)),
	}
}
