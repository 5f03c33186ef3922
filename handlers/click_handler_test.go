package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"galerie-admin-backend/database"
	"galerie-admin-backend/models"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeClickStore simule le repository du journal des clics
type fakeClickStore struct {
	mu     sync.Mutex
	clicks []models.Click
}

func (s *fakeClickStore) Create(click *models.Click) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	click.ID = primitive.NewObjectID()
	if click.Timestamp.IsZero() {
		click.Timestamp = time.Now()
	}
	s.clicks = append(s.clicks, *click)
	return nil
}

func (s *fakeClickStore) FindPage(page, limit int, buttons []string) (*models.ClickList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := make([]models.Click, 0, len(s.clicks))
	for _, c := range s.clicks {
		if len(buttons) == 0 {
			filtered = append(filtered, c)
			continue
		}
		for _, b := range buttons {
			if c.Button == b {
				filtered = append(filtered, c)
				break
			}
		}
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	start := (page - 1) * limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return &models.ClickList{Clicks: filtered[start:end], Total: int64(len(filtered))}, nil
}

func (s *fakeClickStore) Delete(id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.clicks {
		if c.ID == id {
			s.clicks = append(s.clicks[:i], s.clicks[i+1:]...)
			return nil
		}
	}
	return database.ErrClickNotFound
}

func (s *fakeClickStore) DeleteAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks = nil
	return nil
}

func newClickRouter(store *fakeClickStore) *mux.Router {
	handler := NewClickHandler(store)

	router := mux.NewRouter()
	router.HandleFunc("/api/clicks", handler.Create).Methods(http.MethodPost)
	router.HandleFunc("/api/clicks", handler.GetAll).Methods(http.MethodGet)
	router.HandleFunc("/api/clicks", handler.DeleteAll).Methods(http.MethodDelete)
	router.HandleFunc("/api/clicks/{id}", handler.Delete).Methods(http.MethodDelete)
	return router
}

func TestClickCreate(t *testing.T) {
	store := &fakeClickStore{}
	router := newClickRouter(store)

	body, _ := json.Marshal(models.ClickRequest{Button: "contact", Page: "/galerie"})
	req := httptest.NewRequest(http.MethodPost, "/api/clicks", bytes.NewReader(body))
	req.Header.Set("User-Agent", "test-agent")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Code = %v, attendu 201 (body: %s)", rr.Code, rr.Body.String())
	}

	if len(store.clicks) != 1 {
		t.Fatalf("%d clics enregistrés, attendu 1", len(store.clicks))
	}
	// Le User-Agent de la requête sert de repli
	if store.clicks[0].UserAgent != "test-agent" {
		t.Errorf("UserAgent = %q, attendu test-agent", store.clicks[0].UserAgent)
	}
}

func TestClickCreateChampsManquants(t *testing.T) {
	router := newClickRouter(&fakeClickStore{})

	body, _ := json.Marshal(models.ClickRequest{Button: "contact"})
	req := httptest.NewRequest(http.MethodPost, "/api/clicks", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Code = %v, attendu 400", rr.Code)
	}
}

func TestClickGetAllPaginationEtFiltre(t *testing.T) {
	store := &fakeClickStore{}
	for i := 0; i < 15; i++ {
		button := "contact"
		if i%3 == 0 {
			button = "instagram"
		}
		_ = store.Create(&models.Click{Button: button, Page: "/", Timestamp: time.Now().Add(time.Duration(i) * time.Second)})
	}
	router := newClickRouter(store)

	t.Run("pagination", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/clicks?page=2&limit=10", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Code = %v, attendu 200", rr.Code)
		}
		var list models.ClickList
		if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
			t.Fatalf("décodage: %v", err)
		}
		if list.Total != 15 || len(list.Clicks) != 5 {
			t.Errorf("total=%d page=%d, attendu 15 et 5", list.Total, len(list.Clicks))
		}
	})

	t.Run("filtre par bouton", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/clicks?buttons=instagram", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		var list models.ClickList
		if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
			t.Fatalf("décodage: %v", err)
		}
		if list.Total != 5 {
			t.Errorf("total = %d, attendu 5", list.Total)
		}
		for _, c := range list.Clicks {
			if c.Button != "instagram" {
				t.Errorf("bouton inattendu: %s", c.Button)
			}
		}
	})
}

func TestClickDelete(t *testing.T) {
	store := &fakeClickStore{}
	click := &models.Click{Button: "contact", Page: "/"}
	_ = store.Create(click)
	router := newClickRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/clicks/"+click.ID.Hex(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Code = %v, attendu 200", rr.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/clicks/"+click.ID.Hex(), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Code = %v, attendu 404", rr.Code)
	}
}

func TestClickDeleteAll(t *testing.T) {
	store := &fakeClickStore{}
	_ = store.Create(&models.Click{Button: "a", Page: "/"})
	_ = store.Create(&models.Click{Button: "b", Page: "/"})
	router := newClickRouter(store)

	req := httptest.NewRequest(http.MethodDelete, "/api/clicks", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Code = %v, attendu 200", rr.Code)
	}
	if len(store.clicks) != 0 {
		t.Errorf("%d clics restants, attendu 0", len(store.clicks))
	}
}
