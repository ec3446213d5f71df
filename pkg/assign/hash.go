package assign

const (
	// hashSalt prefixes every identifier before hashing. Short numeric user
	// ids cluster badly under DJB2 without a salt.
	hashSalt = "vk::"

	// bucketModulus defines the bucket space. Large enough that weights
	// expressed to two or more decimal places do not suffer visible
	// rounding bias.
	bucketModulus = 1_000_000
)

// djb2 computes the DJB2 rolling hash over s with 32-bit wraparound
// semantics: h = h*33 + b, starting from 5381.
func djb2(s string) int32 {
	var h int32 = 5381
	for i := 0; i < len(s); i++ {
		h = h*33 + int32(s[i])
	}
	return h
}

// Bucket maps an identifier to a stable bucket in [0, bucketModulus).
// The mapping is pure: the same identifier always yields the same bucket,
// across processes and restarts.
func Bucket(identifier string) int64 {
	h := int64(djb2(hashSalt + identifier))
	if h < 0 {
		h = -h
	}
	return h % bucketModulus
}

// Position maps an identifier to a stable position in [0, 1).
func Position(identifier string) float64 {
	return float64(Bucket(identifier)) / float64(bucketModulus)
}
