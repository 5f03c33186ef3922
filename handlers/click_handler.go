package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"galerie-admin-backend/constants"
	"galerie-admin-backend/database"
	"galerie-admin-backend/models"
	"galerie-admin-backend/utils"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// clickStore couvre les opérations du repository du journal des clics
type clickStore interface {
	Create(click *models.Click) error
	FindPage(page, limit int, buttons []string) (*models.ClickList, error)
	Delete(id primitive.ObjectID) error
	DeleteAll() error
}

// ClickHandler gère le journal des clics du site public
type ClickHandler struct {
	clickRepo clickStore
}

// NewClickHandler crée une nouvelle instance de ClickHandler
func NewClickHandler(clickRepo clickStore) *ClickHandler {
	return &ClickHandler{clickRepo: clickRepo}
}

// Create enregistre un clic (endpoint public, appelé par le site vitrine)
func (h *ClickHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.ClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	if strings.TrimSpace(req.Button) == "" || strings.TrimSpace(req.Page) == "" {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrClickFieldsRequired)
		return
	}

	click := &models.Click{
		Button:    strings.TrimSpace(req.Button),
		Page:      strings.TrimSpace(req.Page),
		UserAgent: req.UserAgent,
	}
	if click.UserAgent == "" {
		click.UserAgent = r.Header.Get("User-Agent")
	}

	if err := h.clickRepo.Create(click); err != nil {
		log.Printf("Erreur lors de l'enregistrement du clic: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	utils.RespondJSON(w, http.StatusCreated, click)
}

// GetAll retourne une page du journal des clics.
// Paramètres : page, limit, buttons (liste séparée par des virgules).
func (h *ClickHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit < 1 {
		limit = 10
	}

	var buttons []string
	if raw := query.Get("buttons"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(b); trimmed != "" {
				buttons = append(buttons, trimmed)
			}
		}
	}

	list, err := h.clickRepo.FindPage(page, limit, buttons)
	if err != nil {
		log.Printf("Erreur lors de la récupération des clics: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	utils.RespondJSON(w, http.StatusOK, list)
}

// Delete supprime une entrée du journal
func (h *ClickHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	id, ok := ParseObjectIDVar(w, mux.Vars(r), "id", constants.ErrClickNotFound)
	if !ok {
		return
	}

	if err := h.clickRepo.Delete(id); err != nil {
		if errors.Is(err, database.ErrClickNotFound) {
			utils.RespondError(w, http.StatusNotFound, constants.ErrClickNotFound)
			return
		}
		log.Printf("Erreur lors de la suppression du clic: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	utils.RespondSuccess(w, "Click log deleted", nil)
}

// DeleteAll vide entièrement le journal des clics
func (h *ClickHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	if err := h.clickRepo.DeleteAll(); err != nil {
		log.Printf("Erreur lors de la purge du journal des clics: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Println("🧹 Journal des clics vidé")
	utils.RespondSuccess(w, "Click log cleared", nil)
}
