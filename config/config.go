package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config contient toutes les configurations de l'application
type Config struct {
	Port                    string
	Host                    string
	MongoURI                string
	MongoDB                 string
	JWTSecret               string
	Environment             string
	CORSOrigins             []string
	VAPIDPublicKey          string
	VAPIDPrivateKey         string
	VAPIDSubject            string
	FirebaseCredentialsFile string
	FirebaseCredentialsJSON string
	FCMVAPIDKey             string
	SlackWebhookURL         string
	ClickRetentionDays      int
}

// Load charge la configuration depuis les variables d'environnement
func Load() (*Config, error) {
	// Charger le fichier .env s'il existe
	_ = godotenv.Load()

	config := &Config{
		Port:                    getEnv("PORT", "8090"),
		Host:                    getEnv("HOST", "0.0.0.0"), // 0.0.0.0 pour serveur cloud
		MongoURI:                getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:                 getEnv("MONGO_DB", "galerie_admin_db"),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		Environment:             getEnv("ENVIRONMENT", "development"),
		VAPIDPublicKey:          getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:         getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:            getEnv("VAPID_SUBJECT", "mailto:contact@example.com"),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", "firebase-service-account.json"),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
		FCMVAPIDKey:             getEnv("FCM_VAPID_KEY", ""),
		SlackWebhookURL:         getEnv("SLACK_WEBHOOK_URL", ""),
		ClickRetentionDays:      getEnvInt("CLICK_RETENTION_DAYS", 90),
	}

	// Parser les origines CORS
	origins := getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	originsList := strings.Split(origins, ",")
	// Nettoyer les espaces autour de chaque origine
	config.CORSOrigins = make([]string, 0, len(originsList))
	for _, origin := range originsList {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			config.CORSOrigins = append(config.CORSOrigins, trimmed)
		}
	}

	// Valider les configurations critiques
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET est requis")
	}

	// Les clés VAPID et Firebase sont optionnelles : le serveur démarre sans
	// notifications push si elles sont absentes

	return config, nil
}

// getEnv récupère une variable d'environnement avec une valeur par défaut
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt récupère une variable d'environnement entière avec une valeur par défaut
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return defaultValue
	}
	return parsed
}
