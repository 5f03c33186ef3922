package handlers

import (
	"log"
	"net/http"

	"galerie-admin-backend/constants"
	"galerie-admin-backend/models"
	"galerie-admin-backend/utils"
)

// adminLister couvre la lecture de la liste des comptes admin
type adminLister interface {
	FindAll() ([]models.Admin, error)
	CountAll() (int64, error)
}

// AdminHandler gère les requêtes de gestion des comptes administrateurs
type AdminHandler struct {
	adminRepo adminLister
}

// NewAdminHandler crée une nouvelle instance de AdminHandler
func NewAdminHandler(adminRepo adminLister) *AdminHandler {
	return &AdminHandler{adminRepo: adminRepo}
}

// GetAdmins retourne la liste de tous les comptes admin.
// Les hashs de mots de passe et codes d'accès ne sont jamais sérialisés.
func (h *AdminHandler) GetAdmins(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	admins, err := h.adminRepo.FindAll()
	if err != nil {
		log.Printf("Erreur lors de la récupération des admins: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	total, err := h.adminRepo.CountAll()
	if err != nil {
		log.Printf("Erreur lors du comptage des admins: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"admins": admins,
		"total":  total,
	})
}
