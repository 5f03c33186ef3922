package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin représente un compte administrateur.
// Le hash du mot de passe et le code d'accès utilisé à l'inscription ne
// sont jamais sérialisés vers le frontend.
type Admin struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName  string             `json:"firstName" bson:"first_name"`
	LastName   string             `json:"lastName" bson:"last_name"`
	Username   string             `json:"username" bson:"username"`
	Password   string             `json:"-" bson:"password"`
	AccessCode string             `json:"-" bson:"access_code"`
	CreatedAt  time.Time          `json:"createdAt" bson:"created_at"`
}

// RegisterRequest représente la requête d'inscription d'un admin
type RegisterRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	AccessCode string `json:"accessCode"`
}

// LoginRequest représente la requête de connexion
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
