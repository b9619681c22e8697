package types

// CensusProof is the proof of inclusion of a voter public key in a census
// tree. The key is the truncated hash of the public key and the value is the
// account identifier registered for it.
type CensusProof struct {
	Root     HexBytes `json:"root"`
	Key      HexBytes `json:"key"`
	Value    HexBytes `json:"value"`
	Siblings HexBytes `json:"siblings"`
}
