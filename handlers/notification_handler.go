package handlers

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"galerie-admin-backend/constants"
	"galerie-admin-backend/database"
	"galerie-admin-backend/models"
	"galerie-admin-backend/utils"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/mongo"
)

// NotificationHandler gère les abonnements Web Push des tableaux de bord admin
type NotificationHandler struct {
	subscriptionRepo *database.SubscriptionRepository
	vapidPublicKey   string
	vapidPrivateKey  string
	vapidSubject     string
}

// NewNotificationHandler crée une nouvelle instance de NotificationHandler
func NewNotificationHandler(db *mongo.Database, vapidPublicKey, vapidPrivateKey, vapidSubject string) *NotificationHandler {
	return &NotificationHandler{
		subscriptionRepo: database.NewSubscriptionRepository(db),
		vapidPublicKey:   vapidPublicKey,
		vapidPrivateKey:  vapidPrivateKey,
		vapidSubject:     vapidSubject,
	}
}

// Subscribe abonne un admin aux notifications push
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	existing, err := h.subscriptionRepo.FindByEndpoint(req.Subscription.Endpoint)
	if err != nil {
		log.Printf("Erreur lors de la vérification de l'abonnement: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	if existing != nil {
		utils.RespondSuccess(w, "Subscription already exists", nil)
		return
	}

	subscription := &models.PushSubscription{
		Username: req.Username,
		Endpoint: req.Subscription.Endpoint,
		Keys:     req.Subscription.Keys,
	}

	if err := h.subscriptionRepo.Create(subscription); err != nil {
		log.Printf("Erreur lors de la création de l'abonnement: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Printf("✓ Nouvel abonnement push pour: %s", req.Username)
	utils.RespondSuccess(w, "Subscribed to notifications", subscription)
}

// Unsubscribe désabonne un admin des notifications push
func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		Endpoint string `json:"endpoint"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	if err := h.subscriptionRepo.Delete(req.Endpoint); err != nil {
		log.Printf("Erreur lors de la suppression de l'abonnement: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	log.Printf("✓ Abonnement push supprimé: %s", req.Endpoint)
	utils.RespondSuccess(w, "Unsubscribed from notifications", nil)
}

// SendNotification envoie une notification Web Push à tous les abonnés
func (h *NotificationHandler) SendNotification(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req models.NotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrInvalidData)
		return
	}

	subscriptions, err := h.subscriptionRepo.FindAll()
	if err != nil {
		log.Printf("Erreur lors de la récupération des abonnements: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	if len(subscriptions) == 0 {
		utils.RespondSuccess(w, "No subscribers", map[string]interface{}{
			"sent":  0,
			"total": 0,
		})
		return
	}

	title := req.Title
	if title == "" {
		title = "Notification"
	}
	message := req.Message
	if message == "" {
		message = "You have a new notification"
	}

	payload := models.NotificationPayload{
		Title: title,
		Body:  message,
		Icon:  "/icon-192x192.png",
		Badge: "/badge-72x72.png",
		Data:  req.Data,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Erreur lors de la création du payload: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, constants.ErrServerError)
		return
	}

	sent := 0
	failed := 0

	for _, sub := range subscriptions {
		s := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.Keys.P256dh,
				Auth:   sub.Keys.Auth,
			},
		}

		resp, err := webpush.SendNotification(payloadBytes, s, &webpush.Options{
			Subscriber:      h.vapidSubject,
			VAPIDPublicKey:  h.vapidPublicKey,
			VAPIDPrivateKey: h.vapidPrivateKey,
			TTL:             86400, // 24 heures
			Urgency:         webpush.UrgencyHigh,
		})

		if err != nil {
			log.Printf("❌ Erreur lors de l'envoi à %s: %v", sub.Username, err)
			failed++

			// 410 Gone : l'endpoint n'existe plus, purger l'abonnement
			if resp != nil && resp.StatusCode == http.StatusGone {
				log.Printf("🗑️  Suppression de l'abonnement invalide: %s", sub.Endpoint)
				_ = h.subscriptionRepo.Delete(sub.Endpoint)
			}
			continue
		}

		if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
			sent++
		} else {
			var bodyBytes []byte
			if resp.Body != nil {
				bodyBytes, _ = io.ReadAll(resp.Body)
			}
			log.Printf("⚠️  Réponse inattendue pour %s: %d - %s", sub.Username, resp.StatusCode, string(bodyBytes))
			failed++
		}

		resp.Body.Close()
	}

	log.Printf("📊 Notifications push envoyées: %d/%d (échecs: %d)", sent, len(subscriptions), failed)

	utils.RespondSuccess(w, "Notifications sent", map[string]interface{}{
		"sent":   sent,
		"failed": failed,
		"total":  len(subscriptions),
	})
}

// GetVAPIDPublicKey retourne la clé publique VAPID pour le frontend
func (h *NotificationHandler) GetVAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"publicKey": h.vapidPublicKey,
	})
}
