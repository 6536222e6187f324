package plan

// PeerIndexOf pairs node idx with the node half the list away.
//
// For an odd n the offset is truncated and the pairing is not symmetric:
// with n=5, 0 -> 2 but 2 -> 4.
func PeerIndexOf(idx, n int) int {
	return (idx + n/2) % n
}

// IsSymmetricPair tells whether the peer of idx pairs back with idx.
func IsSymmetricPair(idx, n int) bool {
	return PeerIndexOf(PeerIndexOf(idx, n), n) == idx
}
