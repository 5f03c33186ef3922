package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PushSubscription représente un abonnement Web Push d'un tableau de bord admin
type PushSubscription struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username string             `json:"username" bson:"username"` // Username de l'admin abonné
	Endpoint string             `json:"endpoint" bson:"endpoint"`
	Keys     PushKeys           `json:"keys" bson:"keys"`
	Created  time.Time          `json:"created_at" bson:"created_at"`
}

// PushKeys contient les clés de chiffrement pour les notifications
type PushKeys struct {
	P256dh string `json:"p256dh" bson:"p256dh"`
	Auth   string `json:"auth" bson:"auth"`
}

// SubscribeRequest représente la requête d'abonnement aux notifications
type SubscribeRequest struct {
	Username     string `json:"username"`
	Subscription struct {
		Endpoint string   `json:"endpoint"`
		Keys     PushKeys `json:"keys"`
	} `json:"subscription"`
}

// NotificationRequest représente la requête pour envoyer une notification
type NotificationRequest struct {
	Title   string      `json:"title,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// NotificationPayload représente le contenu d'une notification
type NotificationPayload struct {
	Title string      `json:"title"`
	Body  string      `json:"body"`
	Icon  string      `json:"icon,omitempty"`
	Badge string      `json:"badge,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}
