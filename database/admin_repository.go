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

// ErrUsernameTaken est retourné quand le nom d'utilisateur existe déjà
var ErrUsernameTaken = errors.New("ce nom d'utilisateur est déjà utilisé")

// AdminRepository gère les opérations sur les comptes administrateurs
type AdminRepository struct {
	collection *mongo.Collection
}

// NewAdminRepository crée une nouvelle instance de AdminRepository
func NewAdminRepository(db *mongo.Database) *AdminRepository {
	return &AdminRepository{
		collection: db.Collection("admins"),
	}
}

// Create crée un nouveau compte admin.
// Retourne ErrUsernameTaken en cas de collision sur l'index unique — c'est
// cette erreur qui déclenche la compensation (Release) côté inscription.
func (r *AdminRepository) Create(admin *models.Admin) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	admin.ID = primitive.NewObjectID()
	admin.CreatedAt = time.Now()

	_, err := r.collection.InsertOne(ctx, admin)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("erreur lors de la création de l'admin: %w", err)
	}

	return nil
}

// FindByUsername recherche un admin par nom d'utilisateur
func (r *AdminRepository) FindByUsername(username string) (*models.Admin, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var admin models.Admin
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&admin)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche de l'admin: %w", err)
	}

	return &admin, nil
}

// UsernameExists vérifie si un nom d'utilisateur existe déjà
func (r *AdminRepository) UsernameExists(username string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{"username": username})
	if err != nil {
		return false, fmt.Errorf("erreur lors de la vérification du nom d'utilisateur: %w", err)
	}

	return count > 0, nil
}

// FindAll retourne tous les admins triés par nom d'utilisateur.
// Le hash du mot de passe et le code d'accès ne sont jamais sérialisés
// (tags json sur le modèle).
func (r *AdminRepository) FindAll() ([]models.Admin, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "username", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des admins: %w", err)
	}
	defer cursor.Close(ctx)

	var admins []models.Admin
	if err = cursor.All(ctx, &admins); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des admins: %w", err)
	}

	return admins, nil
}

// CountAll retourne le nombre total de comptes admin
func (r *AdminRepository) CountAll() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("erreur lors du comptage des admins: %w", err)
	}

	return count, nil
}
