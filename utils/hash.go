package utils

// StringHash is the rolling (x*127 + c) hash over the bytes of str.
func StringHash(str string, initial uint32) uint32 {
	return BytesHash([]byte(str), initial)
}

// BytesHash is used to fingerprint encoded mirror records.
func BytesHash(data []byte, initial uint32) uint32 {
	hash := initial
	for _, b := range data {
		hash = (hash << 7) - hash + uint32(b)
	}
	return hash
}
