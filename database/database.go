package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB est l'instance de connexion à la base de données MongoDB
var DB *mongo.Database
var Client *mongo.Client

// Connect établit la connexion à la base de données MongoDB
func Connect(uri, dbName string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Options de connexion
	clientOptions := options.Client().ApplyURI(uri)

	// Connexion à MongoDB
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("erreur lors de la connexion à MongoDB: %w", err)
	}

	// Vérifier la connexion
	if err = client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("erreur lors du ping MongoDB: %w", err)
	}

	Client = client
	DB = client.Database(dbName)

	log.Println("✓ Connexion à MongoDB établie")

	// Créer les index
	if err = createIndexes(); err != nil {
		return fmt.Errorf("erreur lors de la création des index: %w", err)
	}

	return nil
}

// Ping vérifie que la connexion MongoDB est active
func Ping() error {
	if Client == nil {
		return fmt.Errorf("client MongoDB non initialisé")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return Client.Ping(ctx, nil)
}

// Close ferme la connexion à la base de données
func Close() error {
	if Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return Client.Disconnect(ctx)
	}
	return nil
}

// createIndexes crée les index nécessaires
func createIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Collection access_codes : unicité sur le code canonique + tri par date
	codesCollection := DB.Collection("access_codes")
	codeIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "is_active", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}
	if _, err := codesCollection.Indexes().CreateMany(ctx, codeIndexes); err != nil {
		return fmt.Errorf("erreur lors de la création des index access_codes: %w", err)
	}

	// Collection admins : unicité sur le nom d'utilisateur
	adminsCollection := DB.Collection("admins")
	usernameIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := adminsCollection.Indexes().CreateOne(ctx, usernameIndex); err != nil {
		return fmt.Errorf("erreur lors de la création de l'index username: %w", err)
	}

	// Collection clicks : tri par date + filtre par bouton
	clicksCollection := DB.Collection("clicks")
	clickIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "button", Value: 1}},
		},
	}
	if _, err := clicksCollection.Indexes().CreateMany(ctx, clickIndexes); err != nil {
		return fmt.Errorf("erreur lors de la création des index clicks: %w", err)
	}

	log.Println("✓ Index MongoDB créés")
	return nil
}
