package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"galerie-admin-backend/config"
	"galerie-admin-backend/database"
	"galerie-admin-backend/handlers"
	"galerie-admin-backend/middleware"
	"galerie-admin-backend/services"
	"galerie-admin-backend/utils"

	"github.com/gorilla/mux"
)

func main() {
	// Charger la configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Erreur lors du chargement de la configuration: %v", err)
	}

	// Connexion à MongoDB
	if err := database.Connect(cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Fatalf("❌ Erreur de connexion à MongoDB: %v", err)
	}
	defer database.Close()

	// Initialiser Firebase Cloud Messaging (optionnel)
	fcmService, err := services.NewFCMService(cfg.FirebaseCredentialsJSON, cfg.FirebaseCredentialsFile)
	if err != nil {
		log.Printf("⚠️  Erreur d'initialisation Firebase: %v", err)
		log.Println("⚠️  Le serveur démarre SANS notifications FCM")
		fcmService = services.NewDisabledFCMService()
	}

	// Notifications Slack pour les erreurs critiques
	slackService := services.NewSlackService(cfg.SlackWebhookURL)

	// Cron de rétention du journal des clics
	retentionCron := services.NewRetentionCron(database.DB, cfg.ClickRetentionDays)
	retentionCron.Start()
	defer retentionCron.Stop()

	// Créer le routeur et appliquer les middlewares globaux
	router := mux.NewRouter()
	router.Use(middleware.Logging(slackService))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Repositories et services du domaine
	codeRepo := database.NewAccessCodeRepository(database.DB)
	adminRepo := database.NewAdminRepository(database.DB)
	clickRepo := database.NewClickRepository(database.DB)
	fcmTokenRepo := database.NewFCMTokenRepository(database.DB)
	subscriptionRepo := database.NewSubscriptionRepository(database.DB)

	// Diffusion des événements du domaine (inscription, code épuisé)
	// vers les tableaux de bord admin, en Web Push et en FCM
	notifier := services.NewAdminNotifier(
		subscriptionRepo,
		fcmTokenRepo,
		fcmService,
		cfg.VAPIDPublicKey,
		cfg.VAPIDPrivateKey,
		cfg.VAPIDSubject,
	)

	gate := services.NewAccessGate(codeRepo)
	gate.SetNotifier(notifier)

	// Handlers
	authHandler := handlers.NewAuthHandler(adminRepo, gate, cfg.JWTSecret, notifier)
	accessCodeHandler := handlers.NewAccessCodeHandler(codeRepo, gate)
	adminHandler := handlers.NewAdminHandler(adminRepo)
	clickHandler := handlers.NewClickHandler(clickRepo)
	healthHandler := handlers.NewHealthHandler(cfg.Environment)
	notificationHandler := handlers.NewNotificationHandler(
		database.DB,
		cfg.VAPIDPublicKey,
		cfg.VAPIDPrivateKey,
		cfg.VAPIDSubject,
	)
	fcmHandler := handlers.NewFCMHandler(database.DB, fcmService)

	// Middleware Guest : refuse les utilisateurs déjà connectés
	guestMiddleware := middleware.Guest(cfg.JWTSecret)

	// Routes publiques
	router.Handle("/api/admin/register", guestMiddleware(http.HandlerFunc(authHandler.Register))).Methods("POST", "OPTIONS")
	router.Handle("/api/admin/login", guestMiddleware(http.HandlerFunc(authHandler.Login))).Methods("POST", "OPTIONS")

	router.HandleFunc("/api/health", healthHandler.Health).Methods("GET")

	// Validation consultative et consommation d'un code d'accès
	// (formulaire d'inscription, avant la création du compte)
	router.HandleFunc("/api/access-codes/validate/{code}", accessCodeHandler.Validate).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/access-codes/use/{code}", accessCodeHandler.Use).Methods("POST", "OPTIONS")

	// Journal des clics : l'enregistrement vient du site vitrine, sans auth
	router.HandleFunc("/api/clicks", clickHandler.Create).Methods("POST", "OPTIONS")

	// Notifications (abonnements publics)
	router.HandleFunc("/api/notifications/vapid-public-key", notificationHandler.GetVAPIDPublicKey).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/notifications/subscribe", notificationHandler.Subscribe).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/notifications/unsubscribe", notificationHandler.Unsubscribe).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/fcm/vapid-key", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"vapidKey": cfg.FCMVAPIDKey,
		})
	}).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/fcm/subscribe", fcmHandler.Subscribe).Methods("POST", "OPTIONS")
	router.HandleFunc("/api/fcm/unsubscribe", fcmHandler.Unsubscribe).Methods("POST", "OPTIONS")

	// Routes protégées (token JWT requis)
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.Auth(cfg.JWTSecret))

	// Gestion des codes d'accès
	protected.HandleFunc("/access-codes", accessCodeHandler.GetAll).Methods("GET", "OPTIONS")
	protected.HandleFunc("/access-codes", accessCodeHandler.Create).Methods("POST", "OPTIONS")
	protected.HandleFunc("/access-codes/{id}", accessCodeHandler.Update).Methods("PUT", "OPTIONS")
	protected.HandleFunc("/access-codes/{id}", accessCodeHandler.Delete).Methods("DELETE", "OPTIONS")

	// Gestion des comptes admin
	protected.HandleFunc("/admins", adminHandler.GetAdmins).Methods("GET", "OPTIONS")

	// Consultation et purge du journal des clics
	protected.HandleFunc("/clicks", clickHandler.GetAll).Methods("GET", "OPTIONS")
	protected.HandleFunc("/clicks", clickHandler.DeleteAll).Methods("DELETE", "OPTIONS")
	protected.HandleFunc("/clicks/{id}", clickHandler.Delete).Methods("DELETE", "OPTIONS")

	// Envoi de notifications (admin connecté)
	protected.HandleFunc("/notifications/send", notificationHandler.SendNotification).Methods("POST", "OPTIONS")
	protected.HandleFunc("/fcm/send", fcmHandler.SendNotification).Methods("POST", "OPTIONS")

	// Profil de l'admin connecté
	protected.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.GetAdminFromContext(r.Context())
		if claims == nil {
			utils.RespondError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		utils.RespondSuccess(w, "Profile", map[string]interface{}{
			"admin_id": claims.AdminID,
			"username": claims.Username,
		})
	}).Methods("GET")

	// Démarrer le serveur
	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Serveur démarré sur http://%s", addr)
		log.Printf("📝 Environnement: %s", cfg.Environment)
		log.Printf("🗄️  Base de données: MongoDB")
		log.Println("📋 Routes disponibles:")
		log.Println("   POST   /api/admin/register                  - Inscription (code d'accès requis)")
		log.Println("   POST   /api/admin/login                     - Connexion")
		log.Println("   GET    /api/health                         - Health check")
		log.Println("   GET    /api/access-codes/validate/{code}   - Valider un code (sans le consommer)")
		log.Println("   POST   /api/access-codes/use/{code}        - Consommer une utilisation")
		log.Println("   POST   /api/clicks                         - Enregistrer un clic (public)")
		log.Println("")
		log.Println("   🔒 Routes protégées:")
		log.Println("   GET    /api/access-codes                   - Liste des codes d'accès")
		log.Println("   POST   /api/access-codes                   - Créer un code d'accès")
		log.Println("   PUT    /api/access-codes/{id}              - Modifier un code d'accès")
		log.Println("   DELETE /api/access-codes/{id}              - Supprimer un code d'accès")
		log.Println("   GET    /api/admins                         - Liste des admins")
		log.Println("   GET    /api/clicks                         - Journal des clics (paginé)")
		log.Println("   DELETE /api/clicks                         - Vider le journal")
		log.Println("   DELETE /api/clicks/{id}                    - Supprimer une entrée")
		log.Println("   POST   /api/notifications/send             - Notification Web Push")
		log.Println("   POST   /api/fcm/send                       - Notification FCM")
		log.Println("\n✨ Le serveur est prêt à recevoir des requêtes!")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Erreur du serveur: %v", err)
		}
	}()

	// Attendre le signal d'arrêt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("\n🛑 Arrêt du serveur...")
	if err := server.Close(); err != nil {
		log.Printf("❌ Erreur lors de l'arrêt du serveur: %v", err)
	}
	log.Println("✓ Serveur arrêté proprement")
}
