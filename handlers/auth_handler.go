package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"galerie-admin-backend/constants"
	"galerie-admin-backend/database"
	"galerie-admin-backend/models"
	"galerie-admin-backend/services"
	"galerie-admin-backend/utils"
)

// adminStore couvre les opérations du repository des admins utilisées
// par l'authentification
type adminStore interface {
	Create(admin *models.Admin) error
	FindByUsername(username string) (*models.Admin, error)
	UsernameExists(username string) (bool, error)
}

// registrationNotifier prévient les tableaux de bord admin qu'un compte
// vient d'être créé
type registrationNotifier interface {
	NotifyNewAdmin(admin *models.Admin)
}

// AuthHandler gère l'inscription et la connexion des administrateurs
type AuthHandler struct {
	adminRepo adminStore
	gate      *services.AccessGate
	jwtSecret string
	notifier  registrationNotifier
}

// NewAuthHandler crée une nouvelle instance de AuthHandler.
// notifier peut être nil : les notifications de nouvelle inscription
// sont alors simplement désactivées.
func NewAuthHandler(adminRepo adminStore, gate *services.AccessGate, jwtSecret string, notifier registrationNotifier) *AuthHandler {
	return &AuthHandler{
		adminRepo: adminRepo,
		gate:      gate,
		jwtSecret: jwtSecret,
		notifier:  notifier,
	}
}

// Register gère l'inscription d'un nouvel administrateur.
//
// Ordre du workflow : validation des champs, unicité du username, PUIS
// consommation du code d'accès (seul point de mutation du code), PUIS
// création du compte. Si la création échoue après un Consume réussi,
// l'utilisation est rendue (Release) — sans cette compensation, une
// collision de username brûlerait une utilisation du code.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	if err := validateRegisterRequest(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrAllFieldsRequired)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))

	if err := utils.ValidateUsername(username); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrPasswordTooShort)
		return
	}

	// Pré-vérification d'unicité : évite de consommer le code pour rien.
	// La course résiduelle est rattrapée par l'index unique + Release.
	exists, err := h.adminRepo.UsernameExists(username)
	if err != nil {
		log.Printf("Erreur lors de la vérification du nom d'utilisateur: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if exists {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrUsernameTaken)
		return
	}

	// Consommation atomique du code d'accès
	result, err := h.gate.Consume(req.AccessCode)
	if err != nil {
		log.Printf("Erreur lors de la consommation du code d'accès: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}
	if !result.OK {
		utils.RespondError(w, http.StatusBadRequest, result.Message)
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		log.Printf("Erreur lors du hachage du mot de passe: %v", err)
		h.releaseCode(result.Code)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	admin := &models.Admin{
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Username:   username,
		Password:   hashedPassword,
		AccessCode: result.Code,
	}

	if err := h.adminRepo.Create(admin); err != nil {
		h.releaseCode(result.Code)
		if errors.Is(err, database.ErrUsernameTaken) {
			utils.RespondError(w, http.StatusBadRequest, constants.ErrUsernameTaken)
			return
		}
		log.Printf("Erreur lors de la création de l'admin: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	token, err := utils.GenerateToken(admin.ID.Hex(), admin.Username, h.jwtSecret)
	if err != nil {
		// Le compte existe déjà : ne pas rendre l'utilisation du code
		log.Printf("Erreur lors de la génération du token: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Printf("✓ Nouvel admin inscrit: %s (code: %s)", admin.Username, result.Code)

	if h.notifier != nil {
		go h.notifier.NotifyNewAdmin(admin)
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"token":   token,
		"admin":   *admin,
		"accessCodeUsed": models.AccessCodeUsed{
			Code:        result.Code,
			Description: result.Description,
		},
	})
}

// validateRegisterRequest vérifie la présence de tous les champs de
// l'inscription
func validateRegisterRequest(req *models.RegisterRequest) error {
	if err := utils.ValidateRequired("firstName", req.FirstName); err != nil {
		return err
	}
	if err := utils.ValidateRequired("lastName", req.LastName); err != nil {
		return err
	}
	if err := utils.ValidateRequired("username", req.Username); err != nil {
		return err
	}
	if err := utils.ValidateRequired("password", req.Password); err != nil {
		return err
	}
	return utils.ValidateRequired("accessCode", req.AccessCode)
}

// releaseCode rend une utilisation consommée quand l'inscription échoue.
// Best-effort : un échec est journalisé mais ne change pas la réponse.
func (h *AuthHandler) releaseCode(code string) {
	if err := h.gate.Release(code); err != nil {
		log.Printf("⚠️  Impossible de rendre l'utilisation du code %s: %v", code, err)
	}
}

// Login gère la connexion d'un administrateur
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrAllFieldsRequired)
		return
	}

	username := strings.ToLower(strings.TrimSpace(req.Username))

	admin, err := h.adminRepo.FindByUsername(username)
	if err != nil {
		log.Printf("Erreur lors de la recherche de l'admin: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	// Même réponse pour un compte inconnu et un mauvais mot de passe
	if admin == nil || !utils.CheckPassword(admin.Password, req.Password) {
		utils.RespondError(w, http.StatusUnauthorized, constants.ErrInvalidCredentials)
		return
	}

	token, err := utils.GenerateToken(admin.ID.Hex(), admin.Username, h.jwtSecret)
	if err != nil {
		log.Printf("Erreur lors de la génération du token: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Printf("✓ Admin connecté: %s", admin.Username)
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
		"admin":   *admin,
	})
}
