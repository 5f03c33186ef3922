package utils

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateVAPIDKeys génère une paire de clés VAPID (publique et privée)
// au format base64 URL attendu par webpush-go
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	// Générer une paire de clés ECDSA
	curve := elliptic.P256()
	key, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("erreur lors de la génération de la clé: %w", err)
	}

	// Encoder la clé publique (X et Y)
	pubBytes := elliptic.Marshal(curve, key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)

	// Encoder la clé privée
	privBytes := key.D.Bytes()
	// Pad à 32 bytes si nécessaire
	if len(privBytes) < 32 {
		padding := make([]byte, 32-len(privBytes))
		privBytes = append(padding, privBytes...)
	}
	privateKey = base64.RawURLEncoding.EncodeToString(privBytes)

	return publicKey, privateKey, nil
}
