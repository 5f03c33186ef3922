package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessCode représente un code d'accès à usage limité pour l'inscription
// des administrateurs. Le champ Code est toujours stocké sous sa forme
// canonique (majuscules, sans espaces).
type AccessCode struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Code        string             `json:"code" bson:"code"`
	Description string             `json:"description" bson:"description"`
	IsActive    bool               `json:"isActive" bson:"is_active"`
	MaxUses     int                `json:"maxUses" bson:"max_uses"`
	CurrentUses int                `json:"currentUses" bson:"current_uses"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updated_at"`
}

// CanBeUsed indique si le code est utilisable : actif ET sous sa limite
func (c *AccessCode) CanBeUsed() bool {
	return c.IsActive && c.CurrentUses < c.MaxUses
}

// RemainingUses retourne le nombre d'utilisations restantes, jamais négatif
func (c *AccessCode) RemainingUses() int {
	remaining := c.MaxUses - c.CurrentUses
	if remaining < 0 {
		return 0
	}
	return remaining
}

// AccessCodeRequest représente la requête de création ou de modification
// d'un code d'accès. IsActive absent vaut true (les codes naissent actifs).
type AccessCodeRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
	MaxUses     int    `json:"maxUses"`
}

// AccessCodeUsed décrit le code consommé lors d'une inscription réussie
type AccessCodeUsed struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}
