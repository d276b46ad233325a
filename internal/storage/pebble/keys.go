package pebblestore

// keyRange returns iterator bounds covering every key that starts with
// prefix: [prefix, successor(prefix)). An empty prefix scans everything.
func keyRange(prefix string) (lower, upper []byte) {
	if prefix == "" {
		return nil, nil
	}
	lower = []byte(prefix)
	upper = append([]byte(nil), lower...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xFF {
			upper[i]++
			return lower, upper[:i+1]
		}
	}
	// prefix is all 0xFF bytes: no finite upper bound.
	return lower, nil
}
