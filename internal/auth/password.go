package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword bcrypt-hashes a clave for storage in usuarios.hash_clave.
func HashPassword(clave string) (string, error) {
	if len(clave) == 0 {
		return "", errors.New("empty password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(clave), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a login clave against the stored hash. Users that
// never completed registration carry an empty hash and always fail here.
func VerifyPassword(hash, clave string) error {
	if hash == "" {
		return errors.New("no stored password hash")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(clave))
}
