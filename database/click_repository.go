package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"galerie-admin-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrClickNotFound est retourné quand l'entrée du journal n'existe pas
var ErrClickNotFound = errors.New("entrée de journal introuvable")

// ClickRepository gère le journal des clics du site public
type ClickRepository struct {
	collection *mongo.Collection
}

// NewClickRepository crée une nouvelle instance de ClickRepository
func NewClickRepository(db *mongo.Database) *ClickRepository {
	return &ClickRepository{
		collection: db.Collection("clicks"),
	}
}

// Create enregistre un clic
func (r *ClickRepository) Create(click *models.Click) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	click.ID = primitive.NewObjectID()
	if click.Timestamp.IsZero() {
		click.Timestamp = time.Now()
	}

	_, err := r.collection.InsertOne(ctx, click)
	if err != nil {
		return fmt.Errorf("erreur lors de l'enregistrement du clic: %w", err)
	}

	return nil
}

// FindPage retourne une page du journal, les plus récents d'abord.
// buttons filtre sur un ensemble de boutons (vide = tous).
func (r *ClickRepository) FindPage(page, limit int, buttons []string) (*models.ClickList, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	filter := bson.M{}
	if len(buttons) > 0 {
		filter["button"] = bson.M{"$in": buttons}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des clics: %w", err)
	}
	defer cursor.Close(ctx)

	clicks := make([]models.Click, 0, limit)
	if err = cursor.All(ctx, &clicks); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des clics: %w", err)
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("erreur lors du comptage des clics: %w", err)
	}

	return &models.ClickList{Clicks: clicks, Total: total}, nil
}

// Delete supprime une entrée du journal
func (r *ClickRepository) Delete(id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression du clic: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrClickNotFound
	}

	return nil
}

// DeleteAll vide entièrement le journal des clics
func (r *ClickRepository) DeleteAll() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("erreur lors de la purge du journal des clics: %w", err)
	}

	return nil
}

// DeleteOlderThan supprime les clics antérieurs à la date donnée
// (utilisé par le cron de rétention). Retourne le nombre de suppressions.
func (r *ClickRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{
		"timestamp": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, fmt.Errorf("erreur lors de la purge des anciens clics: %w", err)
	}

	return result.DeletedCount, nil
}
