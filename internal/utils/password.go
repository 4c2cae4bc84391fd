package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes an account password with the configured
// cost. Operator passwords are short shop-floor PINs, so the cost is a
// deployment knob (BCRYPT_COST) rather than a constant.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash. The
// comparison is exact; there is no normalization of case or whitespace
// before hashing on either side.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
