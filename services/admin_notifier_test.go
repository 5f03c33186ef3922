package services

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"galerie-admin-backend/models"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeSubscriptionStore simule le repository des abonnements Web Push
type fakeSubscriptionStore struct {
	mu      sync.Mutex
	subs    []models.PushSubscription
	deleted []string
}

func (s *fakeSubscriptionStore) FindAll() ([]models.PushSubscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.PushSubscription(nil), s.subs...), nil
}

func (s *fakeSubscriptionStore) Delete(endpoint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, endpoint)
	return nil
}

// fakeTokenLister simule le repository des tokens FCM
type fakeTokenLister struct {
	tokens []models.FCMToken
}

func (s *fakeTokenLister) FindAll() ([]models.FCMToken, error) {
	return s.tokens, nil
}

// fakeFCMBroadcaster capture le dernier envoi FCM
type fakeFCMBroadcaster struct {
	mu     sync.Mutex
	tokens []string
	title  string
	body   string
	data   map[string]string
}

func (s *fakeFCMBroadcaster) SendToAll(tokens []string, title, body string, data map[string]string) (int, int, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	s.title = title
	s.body = body
	s.data = data
	return len(tokens), 0, nil
}

// sentPush est un envoi Web Push capturé par le stub
type sentPush struct {
	endpoint string
	payload  models.NotificationPayload
}

func newTestNotifier(subs *fakeSubscriptionStore, tokens *fakeTokenLister, fcm *fakeFCMBroadcaster) (*AdminNotifier, *[]sentPush) {
	n := NewAdminNotifier(subs, tokens, fcm, "pub", "priv", "mailto:admin@example.com")

	var mu sync.Mutex
	sent := []sentPush{}
	n.sendWebPush = func(payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
		var p models.NotificationPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		mu.Lock()
		sent = append(sent, sentPush{endpoint: sub.Endpoint, payload: p})
		mu.Unlock()

		status := http.StatusCreated
		// Les endpoints "morts" répondent 410 Gone
		if strings.Contains(sub.Endpoint, "expired") {
			status = http.StatusGone
		}
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}, nil
	}
	return n, &sent
}

func TestNotifyNewAdminDiffuseSurLesDeuxCanaux(t *testing.T) {
	subs := &fakeSubscriptionStore{subs: []models.PushSubscription{
		{Username: "alice", Endpoint: "https://push.example.com/a", Keys: models.PushKeys{P256dh: "p", Auth: "a"}},
		{Username: "bob", Endpoint: "https://push.example.com/b", Keys: models.PushKeys{P256dh: "p", Auth: "a"}},
	}}
	tokens := &fakeTokenLister{tokens: []models.FCMToken{{Token: "tok-1"}, {Token: "tok-2"}, {Token: "tok-3"}}}
	fcm := &fakeFCMBroadcaster{}
	notifier, sent := newTestNotifier(subs, tokens, fcm)

	admin := &models.Admin{
		ID:        primitive.NewObjectID(),
		FirstName: "Marie",
		LastName:  "Dupont",
		Username:  "marie.dupont",
	}
	notifier.NotifyNewAdmin(admin)

	if len(*sent) != 2 {
		t.Fatalf("envois Web Push = %d, attendu 2", len(*sent))
	}
	for _, push := range *sent {
		if push.payload.Title == "" || !strings.Contains(push.payload.Body, "Marie Dupont") {
			t.Errorf("payload push inattendu: %+v", push.payload)
		}
	}

	if len(fcm.tokens) != 3 {
		t.Errorf("tokens FCM = %d, attendu 3", len(fcm.tokens))
	}
	if fcm.data["type"] != "new_admin" || fcm.data["username"] != "marie.dupont" {
		t.Errorf("data FCM = %v", fcm.data)
	}
}

func TestNotifyCodeExhausted(t *testing.T) {
	subs := &fakeSubscriptionStore{subs: []models.PushSubscription{
		{Username: "alice", Endpoint: "https://push.example.com/a"},
	}}
	tokens := &fakeTokenLister{tokens: []models.FCMToken{{Token: "tok-1"}}}
	fcm := &fakeFCMBroadcaster{}
	notifier, sent := newTestNotifier(subs, tokens, fcm)

	notifier.NotifyCodeExhausted("WELCOME1", "Bienvenue")

	if len(*sent) != 1 {
		t.Fatalf("envois Web Push = %d, attendu 1", len(*sent))
	}
	push := (*sent)[0]
	if !strings.Contains(push.payload.Body, "WELCOME1") || !strings.Contains(push.payload.Body, "Bienvenue") {
		t.Errorf("payload push inattendu: %+v", push.payload)
	}

	if fcm.data["type"] != "access_code_exhausted" || fcm.data["code"] != "WELCOME1" {
		t.Errorf("data FCM = %v", fcm.data)
	}
	if !strings.Contains(fcm.body, "WELCOME1") {
		t.Errorf("message FCM = %q", fcm.body)
	}
}

func TestBroadcastPurgeLesAbonnementsMorts(t *testing.T) {
	subs := &fakeSubscriptionStore{subs: []models.PushSubscription{
		{Username: "alice", Endpoint: "https://push.example.com/a"},
		{Username: "parti", Endpoint: "https://push.example.com/expired"},
	}}
	notifier, _ := newTestNotifier(subs, &fakeTokenLister{}, &fakeFCMBroadcaster{})

	notifier.NotifyCodeExhausted("WELCOME1", "")

	subs.mu.Lock()
	defer subs.mu.Unlock()
	if len(subs.deleted) != 1 || subs.deleted[0] != "https://push.example.com/expired" {
		t.Errorf("abonnements purgés = %v, attendu l'endpoint expiré seul", subs.deleted)
	}
}
