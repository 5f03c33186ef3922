package middleware

import (
	"net/http"
	"strings"

	"galerie-admin-backend/utils"
)

// Guest vérifie que l'utilisateur n'est PAS connecté.
// Un token valide présent dans la requête fait refuser l'accès.
func Guest(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")

			// Pas de header Authorization : utilisateur non connecté
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				next.ServeHTTP(w, r)
				return
			}

			if _, err := utils.ValidateToken(parts[1], jwtSecret); err == nil {
				utils.RespondError(w, http.StatusForbidden, "Vous êtes déjà connecté")
				return
			}

			// Token invalide ou expiré : normal pour une nouvelle connexion
			next.ServeHTTP(w, r)
		})
	}
}
