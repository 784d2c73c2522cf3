package utils

import "golang.org/x/crypto/bcrypt"

// defaultHashCost backs registration when BCRYPT_COST is set outside bcrypt's
// supported range. 12 keeps hashing slow enough for a public signup endpoint.
const defaultHashCost = 12

// HashPassword returns the bcrypt hash of plain at the given cost. Costs
// outside bcrypt's valid range fall back to defaultHashCost rather than
// letting a bad env value silently produce weak hashes.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultHashCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
