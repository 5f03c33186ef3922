package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"galerie-admin-backend/models"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// subscriptionStore liste et purge les abonnements Web Push
type subscriptionStore interface {
	FindAll() ([]models.PushSubscription, error)
	Delete(endpoint string) error
}

// fcmTokenLister liste les tokens FCM enregistrés
type fcmTokenLister interface {
	FindAll() ([]models.FCMToken, error)
}

// fcmBroadcaster envoie une notification à un ensemble de tokens FCM
type fcmBroadcaster interface {
	SendToAll(tokens []string, title, body string, data map[string]string) (success int, failed int, failedTokens []string)
}

// AdminNotifier diffuse les événements du domaine vers les tableaux de
// bord admin, sur les deux canaux : Web Push et FCM. Deux événements sont
// couverts : l'inscription d'un nouvel admin et l'épuisement d'un code
// d'accès.
type AdminNotifier struct {
	subscriptionRepo subscriptionStore
	fcmTokenRepo     fcmTokenLister
	fcmService       fcmBroadcaster
	vapidPublicKey   string
	vapidPrivateKey  string
	vapidSubject     string

	// remplaçable dans les tests
	sendWebPush func(payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)
}

// NewAdminNotifier crée une nouvelle instance de AdminNotifier
func NewAdminNotifier(subscriptionRepo subscriptionStore, fcmTokenRepo fcmTokenLister, fcmService fcmBroadcaster, vapidPublicKey, vapidPrivateKey, vapidSubject string) *AdminNotifier {
	return &AdminNotifier{
		subscriptionRepo: subscriptionRepo,
		fcmTokenRepo:     fcmTokenRepo,
		fcmService:       fcmService,
		vapidPublicKey:   vapidPublicKey,
		vapidPrivateKey:  vapidPrivateKey,
		vapidSubject:     vapidSubject,
		sendWebPush:      webpush.SendNotification,
	}
}

// NotifyNewAdmin prévient les tableaux de bord qu'un compte admin vient
// d'être créé
func (n *AdminNotifier) NotifyNewAdmin(admin *models.Admin) {
	title := "👤 Nouvel administrateur"
	message := fmt.Sprintf("%s %s vient de créer un compte", admin.FirstName, admin.LastName)
	data := map[string]string{
		"type":     "new_admin",
		"admin_id": admin.ID.Hex(),
		"username": admin.Username,
	}

	n.broadcast(title, message, data)
}

// NotifyCodeExhausted prévient les tableaux de bord qu'un code d'accès
// vient de consommer sa dernière utilisation
func (n *AdminNotifier) NotifyCodeExhausted(code, description string) {
	title := "🔑 Code d'accès épuisé"
	message := fmt.Sprintf("Le code %s a atteint sa limite d'utilisations", code)
	if description != "" {
		message = fmt.Sprintf("Le code %s (%s) a atteint sa limite d'utilisations", code, description)
	}
	data := map[string]string{
		"type": "access_code_exhausted",
		"code": code,
	}

	n.broadcast(title, message, data)
}

// broadcast envoie le même message sur les deux canaux. Les échecs sont
// journalisés mais jamais propagés : une notification perdue ne doit pas
// faire échouer l'opération qui l'a déclenchée.
func (n *AdminNotifier) broadcast(title, message string, data map[string]string) {
	n.broadcastWebPush(title, message, data)
	n.broadcastFCM(title, message, data)
}

func (n *AdminNotifier) broadcastWebPush(title, message string, data map[string]string) {
	if n.subscriptionRepo == nil {
		return
	}

	subscriptions, err := n.subscriptionRepo.FindAll()
	if err != nil {
		log.Printf("⚠️  Erreur récupération des abonnements push: %v", err)
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload := models.NotificationPayload{
		Title: title,
		Body:  message,
		Icon:  "/icon-192x192.png",
		Badge: "/badge-72x72.png",
		Data:  data,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		log.Printf("⚠️  Erreur création du payload push: %v", err)
		return
	}

	sent := 0
	for _, sub := range subscriptions {
		s := &webpush.Subscription{
			Endpoint: sub.Endpoint,
			Keys: webpush.Keys{
				P256dh: sub.Keys.P256dh,
				Auth:   sub.Keys.Auth,
			},
		}

		resp, err := n.sendWebPush(payloadBytes, s, &webpush.Options{
			Subscriber:      n.vapidSubject,
			VAPIDPublicKey:  n.vapidPublicKey,
			VAPIDPrivateKey: n.vapidPrivateKey,
			TTL:             86400, // 24 heures
			Urgency:         webpush.UrgencyHigh,
		})

		if err != nil {
			log.Printf("❌ Erreur envoi push à %s: %v", sub.Username, err)
			// 410 Gone : l'endpoint n'existe plus, purger l'abonnement
			if resp != nil && resp.StatusCode == http.StatusGone {
				_ = n.subscriptionRepo.Delete(sub.Endpoint)
			}
			continue
		}

		if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK {
			sent++
		} else if resp.StatusCode == http.StatusGone {
			log.Printf("🗑️  Suppression de l'abonnement invalide: %s", sub.Endpoint)
			_ = n.subscriptionRepo.Delete(sub.Endpoint)
		}
		resp.Body.Close()
	}

	log.Printf("📊 Notification push diffusée: %d/%d abonnement(s)", sent, len(subscriptions))
}

func (n *AdminNotifier) broadcastFCM(title, message string, data map[string]string) {
	if n.fcmService == nil || n.fcmTokenRepo == nil {
		return
	}

	allTokens, err := n.fcmTokenRepo.FindAll()
	if err != nil {
		log.Printf("⚠️  Erreur récupération tokens FCM: %v", err)
		return
	}
	if len(allTokens) == 0 {
		return
	}

	tokens := make([]string, 0, len(allTokens))
	for _, t := range allTokens {
		tokens = append(tokens, t.Token)
	}

	success, failed, _ := n.fcmService.SendToAll(tokens, title, message, data)
	log.Printf("📧 Notification FCM diffusée: %d succès, %d échecs", success, failed)
}
