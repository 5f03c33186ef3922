package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Click représente un clic enregistré sur le site public
type Click struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Button    string             `json:"button" bson:"button"`
	Page      string             `json:"page" bson:"page"`
	UserAgent string             `json:"userAgent,omitempty" bson:"user_agent,omitempty"`
	Timestamp time.Time          `json:"timestamp" bson:"timestamp"`
}

// ClickRequest représente la requête d'enregistrement d'un clic
type ClickRequest struct {
	Button    string `json:"button"`
	Page      string `json:"page"`
	UserAgent string `json:"userAgent,omitempty"`
}

// ClickList représente une page du journal des clics
type ClickList struct {
	Clicks []Click `json:"clicks"`
	Total  int64   `json:"total"`
}
