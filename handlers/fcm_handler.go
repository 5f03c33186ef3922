package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"galerie-admin-backend/constants"
	"galerie-admin-backend/database"
	"galerie-admin-backend/models"
	"galerie-admin-backend/services"
	"galerie-admin-backend/utils"

	"go.mongodb.org/mongo-driver/mongo"
)

// FCMHandler gère les abonnements et envois Firebase Cloud Messaging
type FCMHandler struct {
	fcmService *services.FCMService
	tokenRepo  *database.FCMTokenRepository
}

// NewFCMHandler crée une nouvelle instance de FCMHandler
func NewFCMHandler(db *mongo.Database, fcmService *services.FCMService) *FCMHandler {
	return &FCMHandler{
		fcmService: fcmService,
		tokenRepo:  database.NewFCMTokenRepository(db),
	}
}

// Subscribe enregistre un token FCM pour un admin
func (h *FCMHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.FCMSubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	if req.Username == "" || req.FCMToken == "" {
		utils.RespondError(w, http.StatusBadRequest, "username and fcm_token are required")
		return
	}

	token := &models.FCMToken{
		Username:  req.Username,
		Token:     req.FCMToken,
		Device:    req.Device,
		UserAgent: req.UserAgent,
	}

	if err := h.tokenRepo.Upsert(token); err != nil {
		log.Printf("Erreur lors de l'enregistrement du token FCM: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Println("Token FCM enregistré")
	utils.RespondSuccess(w, "FCM subscription saved", token)
}

// Unsubscribe supprime un token FCM
func (h *FCMHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		FCMToken string `json:"fcm_token"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	if req.FCMToken == "" {
		utils.RespondError(w, http.StatusBadRequest, "fcm_token is required")
		return
	}

	if err := h.tokenRepo.Delete(req.FCMToken); err != nil {
		log.Printf("Erreur lors de la suppression du token: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Println("Token FCM supprimé")
	utils.RespondSuccess(w, "FCM subscription removed", nil)
}

// SendNotification envoie une notification FCM à tous les abonnés
func (h *FCMHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.FCMNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	allTokens, err := h.tokenRepo.FindAll()
	if err != nil {
		log.Printf("Erreur lors de la récupération des tokens: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	if len(allTokens) == 0 {
		utils.RespondSuccess(w, "No subscribers", models.FCMNotificationResponse{})
		return
	}

	tokens := make([]string, len(allTokens))
	for i, t := range allTokens {
		tokens[i] = t.Token
	}

	title := req.Title
	if title == "" {
		title = "Notification"
	}
	message := req.Message
	if message == "" {
		message = "You have a new notification"
	}

	success, failed, failedTokens := h.fcmService.SendToAll(tokens, title, message, req.Data)

	// Les tokens refusés par FCM sont périmés, les purger
	for _, failedToken := range failedTokens {
		if err := h.tokenRepo.Delete(failedToken); err != nil {
			log.Printf("⚠️  Impossible de supprimer le token invalide: %v", err)
		}
	}

	utils.RespondSuccess(w, "Notifications sent", models.FCMNotificationResponse{
		Success:      success,
		Failed:       failed,
		Total:        len(tokens),
		FailedTokens: failedTokens,
	})
}
