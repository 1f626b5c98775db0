package utils

import "hash/fnv"

// PickVariant maps key onto [0, n) so the same ticket always gets the same variant.
// salt lets callers draw independent picks from one key.
func PickVariant(key string, salt byte, n int) int {
	if n <= 0 {
		return 0
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	_, _ = h.Write([]byte{salt})
	return int(h.Sum64() % uint64(n))
}
