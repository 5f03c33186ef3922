package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hache le mot de passe d'un compte admin avec bcrypt.
// Le hash est la seule forme stockée : le mot de passe en clair ne sort
// jamais du handler d'inscription.
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword compare le mot de passe fourni à la connexion avec le
// hash stocké du compte
func CheckPassword(hashedPassword, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}
