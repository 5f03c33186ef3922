package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"galerie-admin-backend/database"
	"galerie-admin-backend/models"
	"galerie-admin-backend/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testJWTSecret = "test-secret"

// fakeAdminStore simule le repository des admins en mémoire.
// failCreate force Create à échouer en collision pour tester la
// compensation du code d'accès.
type fakeAdminStore struct {
	mu         sync.Mutex
	admins     map[string]*models.Admin
	failCreate bool
}

func newFakeAdminStore() *fakeAdminStore {
	return &fakeAdminStore{admins: make(map[string]*models.Admin)}
}

func (s *fakeAdminStore) Create(admin *models.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return database.ErrUsernameTaken
	}
	if _, ok := s.admins[admin.Username]; ok {
		return database.ErrUsernameTaken
	}
	admin.ID = primitive.NewObjectID()
	cp := *admin
	s.admins[admin.Username] = &cp
	return nil
}

func (s *fakeAdminStore) FindByUsername(username string) (*models.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[username]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *fakeAdminStore) UsernameExists(username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.admins[username]
	return ok, nil
}

func newAuthTestHandler(adminRepo adminStore, codeStore *fakeCodeStore) *AuthHandler {
	return NewAuthHandler(adminRepo, services.NewAccessGate(codeStore), testJWTSecret, nil)
}

// fakeRegistrationNotifier capture les notifications de nouvelle
// inscription (envoyées dans une goroutine par le handler)
type fakeRegistrationNotifier struct {
	newAdmins chan *models.Admin
}

func newFakeRegistrationNotifier() *fakeRegistrationNotifier {
	return &fakeRegistrationNotifier{newAdmins: make(chan *models.Admin, 1)}
}

func (n *fakeRegistrationNotifier) NotifyNewAdmin(admin *models.Admin) {
	n.newAdmins <- admin
}

func registerBody(t *testing.T, req models.RegisterRequest) *bytes.Reader {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(body)
}

func TestRegisterSuccess(t *testing.T) {
	codeStore := newFakeCodeStore()
	codeStore.add(models.AccessCode{Code: "WELCOME1", Description: "Bienvenue", IsActive: true, MaxUses: 2})
	adminRepo := newFakeAdminStore()
	handler := newAuthTestHandler(adminRepo, codeStore)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/register", registerBody(t, models.RegisterRequest{
		FirstName:  "Marie",
		LastName:   "Dupont",
		Username:   "Marie.Dupont",
		Password:   "motdepasse",
		AccessCode: "  welcome1  ",
	}))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Code = %v, attendu 201 (body: %s)", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success        bool                  `json:"success"`
		Token          string                `json:"token"`
		Admin          models.Admin          `json:"admin"`
		AccessCodeUsed models.AccessCodeUsed `json:"accessCodeUsed"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("décodage de la réponse: %v", err)
	}

	if !resp.Success || resp.Token == "" {
		t.Errorf("success=%v token=%q", resp.Success, resp.Token)
	}
	// Le username est normalisé en minuscules
	if resp.Admin.Username != "marie.dupont" {
		t.Errorf("username = %q, attendu marie.dupont", resp.Admin.Username)
	}
	if resp.AccessCodeUsed.Code != "WELCOME1" || resp.AccessCodeUsed.Description != "Bienvenue" {
		t.Errorf("accessCodeUsed = %+v", resp.AccessCodeUsed)
	}

	// Exactement une utilisation consommée
	stored := codeStore.byCode("WELCOME1")
	if stored.CurrentUses != 1 || !stored.IsActive {
		t.Errorf("code après inscription: uses=%d actif=%v, attendu 1 et actif", stored.CurrentUses, stored.IsActive)
	}
}

func TestRegisterChampsManquants(t *testing.T) {
	handler := newAuthTestHandler(newFakeAdminStore(), newFakeCodeStore())

	tests := []struct {
		name string
		req  models.RegisterRequest
	}{
		{"tout vide", models.RegisterRequest{}},
		{"sans code d'accès", models.RegisterRequest{FirstName: "A", LastName: "B", Username: "ab.cd", Password: "motdepasse"}},
		{"sans mot de passe", models.RegisterRequest{FirstName: "A", LastName: "B", Username: "ab.cd", AccessCode: "X"}},
		{"sans username", models.RegisterRequest{FirstName: "A", LastName: "B", Password: "motdepasse", AccessCode: "X"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/register", registerBody(t, tt.req))
			rr := httptest.NewRecorder()
			handler.Register(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Code = %v, attendu 400", rr.Code)
			}
		})
	}
}

func TestRegisterMotDePasseTropCourt(t *testing.T) {
	codeStore := newFakeCodeStore()
	codeStore.add(models.AccessCode{Code: "WELCOME1", IsActive: true, MaxUses: 1})
	handler := newAuthTestHandler(newFakeAdminStore(), codeStore)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/register", registerBody(t, models.RegisterRequest{
		FirstName: "A", LastName: "B", Username: "ab.cd", Password: "12345", AccessCode: "WELCOME1",
	}))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Code = %v, attendu 400", rr.Code)
	}
	// La validation échoue AVANT toute consommation
	if codeStore.byCode("WELCOME1").CurrentUses != 0 {
		t.Error("le code a été consommé malgré l'échec de validation")
	}
}

func TestRegisterCodeInvalide(t *testing.T) {
	codeStore := newFakeCodeStore()
	codeStore.add(models.AccessCode{Code: "INACTIF", IsActive: false, MaxUses: 3})
	handler := newAuthTestHandler(newFakeAdminStore(), codeStore)

	tests := []struct {
		name string
		code string
	}{
		{"code inconnu", "INCONNU"},
		{"code désactivé", "INACTIF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/register", registerBody(t, models.RegisterRequest{
				FirstName: "A", LastName: "B", Username: "ab.cd", Password: "motdepasse", AccessCode: tt.code,
			}))
			rr := httptest.NewRecorder()
			handler.Register(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Errorf("Code = %v, attendu 400", rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("décodage de la réponse: %v", err)
			}
			if resp.Message == "" {
				t.Error("message d'erreur vide")
			}
		})
	}
}

func TestRegisterUsernameDejaPris(t *testing.T) {
	codeStore := newFakeCodeStore()
	codeStore.add(models.AccessCode{Code: "WELCOME1", IsActive: true, MaxUses: 1})
	adminRepo := newFakeAdminStore()
	handler := newAuthTestHandler(adminRepo, codeStore)

	existing := &models.Admin{FirstName: "Jean", LastName: "Martin", Username: "jean.martin", Password: "hash"}
	if err := adminRepo.Create(existing); err != nil {
		t.Fatalf("seed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/register", registerBody(t, models.RegisterRequest{
		FirstName: "Jean", LastName: "Martin", Username: "jean.martin", Password: "motdepasse", AccessCode: "WELCOME1",
	}))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Code = %v, attendu 400", rr.Code)
	}
	// La pré-vérification refuse avant de toucher au code
	if codeStore.byCode("WELCOME1").CurrentUses != 0 {
		t.Error("le code a été consommé malgré la collision de username")
	}
}

func TestRegisterCollisionTardiveRendLeCode(t *testing.T) {
	// La pré-vérification passe mais Create échoue (course sur l'index
	// unique) : l'utilisation consommée doit être rendue
	codeStore := newFakeCodeStore()
	codeStore.add(models.AccessCode{Code: "SOLO", IsActive: true, MaxUses: 1})
	adminRepo := newFakeAdminStore()
	adminRepo.failCreate = true
	handler := newAuthTestHandler(adminRepo, codeStore)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/register", registerBody(t, models.RegisterRequest{
		FirstName: "A", LastName: "B", Username: "ab.cd", Password: "motdepasse", AccessCode: "SOLO",
	}))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Code = %v, attendu 400", rr.Code)
	}

	stored := codeStore.byCode("SOLO")
	if stored.CurrentUses != 0 || !stored.IsActive {
		t.Errorf("code après compensation: uses=%d actif=%v, attendu 0 et actif", stored.CurrentUses, stored.IsActive)
	}
}

func TestLogin(t *testing.T) {
	codeStore := newFakeCodeStore()
	codeStore.add(models.AccessCode{Code: "WELCOME1", IsActive: true, MaxUses: 1})
	adminRepo := newFakeAdminStore()
	handler := newAuthTestHandler(adminRepo, codeStore)

	// Créer le compte via le vrai workflow d'inscription
	req := httptest.NewRequest(http.MethodPost, "/api/admin/register", registerBody(t, models.RegisterRequest{
		FirstName: "Marie", LastName: "Dupont", Username: "marie.dupont", Password: "motdepasse", AccessCode: "WELCOME1",
	}))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("inscription: Code = %v (body: %s)", rr.Code, rr.Body.String())
	}

	login := func(username, password string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(models.LoginRequest{Username: username, Password: password})
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
		rr := httptest.NewRecorder()
		handler.Login(rr, req)
		return rr
	}

	t.Run("identifiants corrects", func(t *testing.T) {
		rr := login("Marie.Dupont", "motdepasse")
		if rr.Code != http.StatusOK {
			t.Fatalf("Code = %v, attendu 200 (body: %s)", rr.Code, rr.Body.String())
		}
		var resp struct {
			Success bool   `json:"success"`
			Token   string `json:"token"`
		}
		if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
			t.Fatalf("décodage: %v", err)
		}
		if !resp.Success || resp.Token == "" {
			t.Errorf("success=%v token=%q", resp.Success, resp.Token)
		}
	})

	t.Run("mauvais mot de passe", func(t *testing.T) {
		if rr := login("marie.dupont", "mauvais"); rr.Code != http.StatusUnauthorized {
			t.Errorf("Code = %v, attendu 401", rr.Code)
		}
	})

	t.Run("compte inconnu", func(t *testing.T) {
		if rr := login("inconnu", "motdepasse"); rr.Code != http.StatusUnauthorized {
			t.Errorf("Code = %v, attendu 401", rr.Code)
		}
	})
}

func TestRegisterNotifieLesAdmins(t *testing.T) {
	codeStore := newFakeCodeStore()
	codeStore.add(models.AccessCode{Code: "WELCOME1", IsActive: true, MaxUses: 5})
	notifier := newFakeRegistrationNotifier()
	handler := NewAuthHandler(newFakeAdminStore(), services.NewAccessGate(codeStore), testJWTSecret, notifier)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/register", registerBody(t, models.RegisterRequest{
		FirstName:  "Paul",
		LastName:   "Martin",
		Username:   "paul.martin",
		Password:   "motdepasse",
		AccessCode: "WELCOME1",
	}))
	rr := httptest.NewRecorder()
	handler.Register(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Code = %v, attendu 201 (body: %s)", rr.Code, rr.Body.String())
	}

	select {
	case admin := <-notifier.newAdmins:
		if admin.Username != "paul.martin" {
			t.Errorf("admin notifié = %q, attendu paul.martin", admin.Username)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("aucune notification de nouvelle inscription reçue")
	}
}
