package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"galerie-admin-backend/constants"
	"galerie-admin-backend/database"
	"galerie-admin-backend/models"
	"galerie-admin-backend/services"
	"galerie-admin-backend/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// codeAdminStore couvre les opérations CRUD du repository des codes d'accès
type codeAdminStore interface {
	Create(code *models.AccessCode) error
	FindAll() ([]models.AccessCode, error)
	FindByID(id primitive.ObjectID) (*models.AccessCode, error)
	Update(id primitive.ObjectID, code string, description string, maxUses int, isActive bool) (*models.AccessCode, error)
	Delete(id primitive.ObjectID) error
}

// AccessCodeHandler gère les requêtes sur les codes d'accès.
// Le CRUD passe par le repository ; la validation et la consommation
// passent exclusivement par le portail (AccessGate).
type AccessCodeHandler struct {
	codeRepo codeAdminStore
	gate     *services.AccessGate
}

// NewAccessCodeHandler crée une nouvelle instance de AccessCodeHandler
func NewAccessCodeHandler(codeRepo codeAdminStore, gate *services.AccessGate) *AccessCodeHandler {
	return &AccessCodeHandler{
		codeRepo: codeRepo,
		gate:     gate,
	}
}

// GetAll retourne tous les codes d'accès, les plus récents d'abord
func (h *AccessCodeHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	codes, err := h.codeRepo.FindAll()
	if err != nil {
		log.Printf("Erreur lors de la récupération des codes d'accès: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"accessCodes": codes,
		"total":       len(codes),
	})
}

// Create crée un nouveau code d'accès
func (h *AccessCodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.AccessCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	code := h.gate.Canonicalize(req.Code)
	if code == "" {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrCodeRequired)
		return
	}

	// Absent → actif par défaut
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	accessCode := &models.AccessCode{
		Code:        code,
		Description: req.Description,
		IsActive:    isActive,
		MaxUses:     req.MaxUses,
	}

	if err := h.codeRepo.Create(accessCode); err != nil {
		if errors.Is(err, database.ErrCodeDuplicate) {
			utils.RespondError(w, http.StatusBadRequest, constants.ErrCodeAlreadyExists)
			return
		}
		log.Printf("Erreur lors de la création du code d'accès: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Printf("✓ Code d'accès créé: %s (max %d utilisations)", accessCode.Code, accessCode.MaxUses)
	utils.RespondJSON(w, http.StatusCreated, accessCode)
}

// Update modifie un code d'accès existant
func (h *AccessCodeHandler) Update(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPut) {
		return
	}

	id, ok := ParseObjectIDVar(w, mux.Vars(r), "id", constants.ErrCodeIDInvalid)
	if !ok {
		return
	}

	var req models.AccessCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	existing, err := h.codeRepo.FindByID(id)
	if err != nil {
		log.Printf("Erreur lors de la recherche du code d'accès: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if existing == nil {
		utils.RespondError(w, http.StatusNotFound, constants.ErrCodeMissing)
		return
	}

	// Champs absents : conserver les valeurs existantes
	code := existing.Code
	if req.Code != "" {
		code = h.gate.Canonicalize(req.Code)
	}
	description := existing.Description
	if req.Description != "" {
		description = req.Description
	}
	maxUses := existing.MaxUses
	if req.MaxUses > 0 {
		maxUses = req.MaxUses
	}
	isActive := existing.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	updated, err := h.codeRepo.Update(id, code, description, maxUses, isActive)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrCodeDuplicate):
			utils.RespondError(w, http.StatusBadRequest, constants.ErrCodeAlreadyExists)
		case errors.Is(err, database.ErrCodeNotFound):
			utils.RespondError(w, http.StatusNotFound, constants.ErrCodeMissing)
		default:
			log.Printf("Erreur lors de la mise à jour du code d'accès: %v", err)
			utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		}
		return
	}

	log.Printf("✓ Code d'accès mis à jour: %s", updated.Code)
	utils.RespondJSON(w, http.StatusOK, updated)
}

// Delete supprime définitivement un code d'accès
func (h *AccessCodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	id, ok := ParseObjectIDVar(w, mux.Vars(r), "id", constants.ErrCodeIDInvalid)
	if !ok {
		return
	}

	if err := h.codeRepo.Delete(id); err != nil {
		if errors.Is(err, database.ErrCodeNotFound) {
			utils.RespondError(w, http.StatusNotFound, constants.ErrCodeMissing)
			return
		}
		log.Printf("Erreur lors de la suppression du code d'accès: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Printf("✓ Code d'accès supprimé: %s", id.Hex())
	utils.RespondSuccess(w, "Access code deleted", nil)
}

// Validate vérifie un code sans le consommer. Purement consultatif :
// un code valide ici peut encore être refusé au moment de l'inscription.
func (h *AccessCodeHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	raw := mux.Vars(r)["code"]

	result, err := h.gate.Validate(raw)
	if err != nil {
		log.Printf("Erreur lors de la validation du code d'accès: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	if !result.OK {
		status := http.StatusBadRequest
		if result.Reason == services.ReasonNotFound {
			status = http.StatusNotFound
		}
		utils.RespondJSON(w, status, models.ValidateCodeResponse{
			Valid:   false,
			Message: result.Message,
		})
		return
	}

	utils.RespondJSON(w, http.StatusOK, models.ValidateCodeResponse{
		Valid:         true,
		Message:       "Access code is valid",
		Code:          result.Code,
		Description:   result.Description,
		RemainingUses: result.RemainingUses,
	})
}

// Use consomme une utilisation du code (hors inscription — par exemple un
// accès ponctuel au contenu protégé). La consommation est atomique.
func (h *AccessCodeHandler) Use(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	raw := mux.Vars(r)["code"]

	result, err := h.gate.Consume(raw)
	if err != nil {
		log.Printf("Erreur lors de la consommation du code d'accès: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	if !result.OK {
		status := http.StatusBadRequest
		if result.Reason == services.ReasonNotFound {
			status = http.StatusNotFound
		}
		utils.RespondJSON(w, status, models.ConsumeCodeResponse{
			Success: false,
			Message: result.Message,
		})
		return
	}

	log.Printf("✓ Code d'accès consommé: %s (%d restantes)", result.Code, result.RemainingUses)
	utils.RespondJSON(w, http.StatusOK, models.ConsumeCodeResponse{
		Success:       true,
		Message:       "Access code used",
		Code:          result.Code,
		Description:   result.Description,
		RemainingUses: result.RemainingUses,
	})
}
