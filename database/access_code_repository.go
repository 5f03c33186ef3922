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

// Erreurs typées du store de codes d'accès. Le service AccessGate les
// traduit en messages utilisateur distincts (introuvable / désactivé / épuisé).
var (
	ErrCodeNotFound  = errors.New("code d'accès introuvable")
	ErrCodeInactive  = errors.New("code d'accès désactivé")
	ErrCodeExhausted = errors.New("code d'accès épuisé")
	ErrCodeDuplicate = errors.New("ce code d'accès existe déjà")
)

// AccessCodeRepository gère les opérations sur les codes d'accès.
// Toutes les méthodes attendent un code déjà canonique (majuscules, trim) —
// la canonicalisation est centralisée dans services.AccessGate.
type AccessCodeRepository struct {
	collection *mongo.Collection
}

// NewAccessCodeRepository crée une nouvelle instance de AccessCodeRepository
func NewAccessCodeRepository(db *mongo.Database) *AccessCodeRepository {
	return &AccessCodeRepository{
		collection: db.Collection("access_codes"),
	}
}

// Create crée un nouveau code d'accès.
// MaxUses est clampé à 1 minimum, CurrentUses démarre à 0.
// Retourne ErrCodeDuplicate si le code canonique existe déjà (index unique).
func (r *AccessCodeRepository) Create(code *models.AccessCode) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	now := time.Now()
	code.ID = primitive.NewObjectID()
	code.CurrentUses = 0
	if code.MaxUses < 1 {
		code.MaxUses = 1
	}
	code.CreatedAt = now
	code.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, code)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrCodeDuplicate
		}
		return fmt.Errorf("erreur lors de la création du code d'accès: %w", err)
	}

	return nil
}

// FindByCode recherche un code par sa forme canonique (lecture seule)
func (r *AccessCodeRepository) FindByCode(code string) (*models.AccessCode, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var accessCode models.AccessCode
	err := r.collection.FindOne(ctx, bson.M{"code": code}).Decode(&accessCode)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du code d'accès: %w", err)
	}

	return &accessCode, nil
}

// FindByID recherche un code par son identifiant
func (r *AccessCodeRepository) FindByID(id primitive.ObjectID) (*models.AccessCode, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var accessCode models.AccessCode
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&accessCode)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche du code d'accès: %w", err)
	}

	return &accessCode, nil
}

// Consume consomme une utilisation du code de façon atomique.
//
// Le filtre re-vérifie le prédicat d'utilisabilité et la mise à jour
// (pipeline d'agrégation) incrémente current_uses puis désactive le code
// si la limite est atteinte — le tout en UNE SEULE opération côté serveur.
// Deux requêtes concurrentes sur un code à maxUses=1 ne peuvent donc jamais
// réussir toutes les deux : un simple lire-puis-écrire applicatif le
// permettrait.
//
// Retourne le document après mise à jour, ou une erreur typée
// (ErrCodeNotFound / ErrCodeInactive / ErrCodeExhausted) si rien n'a matché.
func (r *AccessCodeRepository) Consume(code string) (*models.AccessCode, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"code":      code,
		"is_active": true,
		"$expr":     bson.M{"$lt": bson.A{"$current_uses", "$max_uses"}},
	}

	update := bson.A{
		bson.M{"$set": bson.M{
			"current_uses": bson.M{"$add": bson.A{"$current_uses", 1}},
			"updated_at":   time.Now(),
		}},
		// Après l'incrément : auto-expiration si la limite est atteinte
		bson.M{"$set": bson.M{
			"is_active": bson.M{"$cond": bson.A{
				bson.M{"$gte": bson.A{"$current_uses", "$max_uses"}},
				false,
				"$is_active",
			}},
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.AccessCode
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)

	if err == mongo.ErrNoDocuments {
		// Aucun document utilisable : relire pour distinguer la cause
		return nil, r.classifyConsumeFailure(code)
	}

	if err != nil {
		return nil, fmt.Errorf("erreur lors de la consommation du code d'accès: %w", err)
	}

	return &updated, nil
}

// classifyConsumeFailure relit le code pour distinguer introuvable,
// désactivé et épuisé. Purement informatif : la garantie d'atomicité ne
// porte que sur le chemin de succès de Consume.
func (r *AccessCodeRepository) classifyConsumeFailure(code string) error {
	existing, err := r.FindByCode(code)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrCodeNotFound
	}
	if !existing.IsActive {
		return ErrCodeInactive
	}
	// Épuisé — ou redevenu utilisable entre-temps (réactivation admin) ;
	// dans ce dernier cas l'appelant peut simplement réessayer
	return ErrCodeExhausted
}

// Release libère une utilisation consommée (compensation quand la création
// du compte échoue après un Consume réussi). Le code n'est réactivé que si
// le décrément retraverse la frontière d'auto-expiration
// (current_uses == max_uses) ; un code désactivé par un admin en dessous de
// sa limite reste désactivé.
func (r *AccessCodeRepository) Release(code string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"code":         code,
		"current_uses": bson.M{"$gt": 0},
	}

	// Dans un même stage $set, les expressions lisent les valeurs d'origine :
	// is_active est donc calculé avant le décrément
	update := bson.A{
		bson.M{"$set": bson.M{
			"is_active": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$current_uses", "$max_uses"}},
				true,
				"$is_active",
			}},
			"current_uses": bson.M{"$subtract": bson.A{"$current_uses", 1}},
			"updated_at":   time.Now(),
		}},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("erreur lors de la libération du code d'accès: %w", err)
	}

	if result.MatchedCount == 0 {
		return ErrCodeNotFound
	}

	return nil
}

// Update modifie un code d'accès (édition administrative).
// Ne touche jamais current_uses directement, mais le clampe si le nouveau
// max_uses est inférieur. Retourne ErrCodeDuplicate si le nouveau code
// canonique est déjà pris par un autre document.
func (r *AccessCodeRepository) Update(id primitive.ObjectID, code string, description string, maxUses int, isActive bool) (*models.AccessCode, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if maxUses < 1 {
		maxUses = 1
	}

	// Vérifier l'unicité du code (en excluant le document courant)
	count, err := r.collection.CountDocuments(ctx, bson.M{
		"code": code,
		"_id":  bson.M{"$ne": id},
	})
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la vérification du code d'accès: %w", err)
	}
	if count > 0 {
		return nil, ErrCodeDuplicate
	}

	update := bson.A{
		bson.M{"$set": bson.M{
			"code":        code,
			"description": description,
			"max_uses":    maxUses,
			"is_active":   isActive,
			"updated_at":  time.Now(),
		}},
		// Invariant : current_uses ne dépasse jamais max_uses (clampé, pas rejeté)
		bson.M{"$set": bson.M{
			"current_uses": bson.M{"$min": bson.A{"$current_uses", "$max_uses"}},
		}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.AccessCode
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&updated)

	if err == mongo.ErrNoDocuments {
		return nil, ErrCodeNotFound
	}

	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrCodeDuplicate
		}
		return nil, fmt.Errorf("erreur lors de la mise à jour du code d'accès: %w", err)
	}

	return &updated, nil
}

// Delete supprime définitivement un code d'accès (pas de soft-delete)
func (r *AccessCodeRepository) Delete(id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("erreur lors de la suppression du code d'accès: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCodeNotFound
	}

	return nil
}

// FindAll retourne tous les codes d'accès, les plus récents d'abord
func (r *AccessCodeRepository) FindAll() ([]models.AccessCode, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la recherche des codes d'accès: %w", err)
	}
	defer cursor.Close(ctx)

	var codes []models.AccessCode
	if err = cursor.All(ctx, &codes); err != nil {
		return nil, fmt.Errorf("erreur lors du décodage des codes d'accès: %w", err)
	}

	return codes, nil
}
