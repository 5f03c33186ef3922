package services

import (
	"errors"
	"fmt"
	"strings"

	"galerie-admin-backend/constants"
	"galerie-admin-backend/database"
	"galerie-admin-backend/models"
)

// CodeStore abstrait le repository des codes d'accès.
// Consume doit être atomique vis-à-vis des appels concurrents sur le même
// code ; Release est la compensation best-effort de l'inscription.
type CodeStore interface {
	FindByCode(code string) (*models.AccessCode, error)
	Consume(code string) (*models.AccessCode, error)
	Release(code string) error
}

// GateReason identifie la cause d'un refus du portail
type GateReason string

const (
	ReasonNotFound  GateReason = "not_found"
	ReasonInactive  GateReason = "inactive"
	ReasonExhausted GateReason = "exhausted"
)

// GateResult est le résultat d'un Validate ou d'un Consume.
// Quand OK est faux, Reason et Message décrivent le refus.
type GateResult struct {
	OK            bool
	Reason        GateReason
	Message       string
	Code          string
	Description   string
	RemainingUses int
}

// ExhaustionNotifier est prévenu quand un Consume épuise la dernière
// utilisation d'un code
type ExhaustionNotifier interface {
	NotifyCodeExhausted(code, description string)
}

// AccessGate est la frontière entre l'entrée non fiable de l'inscription et
// le store. C'est lui qui possède le contrat de canonicalisation
// (trim + majuscules), appliqué exactement une fois — les appelants ne
// doivent jamais le dupliquer.
type AccessGate struct {
	store    CodeStore
	notifier ExhaustionNotifier
}

// NewAccessGate crée une nouvelle instance de AccessGate
func NewAccessGate(store CodeStore) *AccessGate {
	return &AccessGate{store: store}
}

// SetNotifier branche la diffusion de l'événement d'épuisement.
// À appeler avant de servir des requêtes ; nil désactive l'événement.
func (g *AccessGate) SetNotifier(n ExhaustionNotifier) {
	g.notifier = n
}

// Canonicalize normalise un code brut : espaces retirés, majuscules
func (g *AccessGate) Canonicalize(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// Validate vérifie un code sans JAMAIS le modifier : c'est un aperçu
// consultatif (appelable à chaque frappe côté frontend). Un Validate qui
// réussit ne réserve rien — un Consume ultérieur peut encore échouer si une
// autre requête a consommé la dernière utilisation entre-temps.
// L'erreur retournée est réservée aux pannes du store (→ 500).
func (g *AccessGate) Validate(raw string) (*GateResult, error) {
	code := g.Canonicalize(raw)
	if code == "" {
		return &GateResult{OK: false, Reason: ReasonNotFound, Message: constants.ErrCodeNotFound}, nil
	}

	accessCode, err := g.store.FindByCode(code)
	if err != nil {
		return nil, fmt.Errorf("validation du code %s: %w", code, err)
	}

	if accessCode == nil {
		return &GateResult{OK: false, Reason: ReasonNotFound, Message: constants.ErrCodeNotFound}, nil
	}

	if !accessCode.IsActive {
		return &GateResult{OK: false, Reason: ReasonInactive, Message: constants.ErrCodeInactive}, nil
	}

	if accessCode.CurrentUses >= accessCode.MaxUses {
		return &GateResult{OK: false, Reason: ReasonExhausted, Message: constants.ErrCodeExhausted}, nil
	}

	return &GateResult{
		OK:            true,
		Code:          accessCode.Code,
		Description:   accessCode.Description,
		RemainingUses: accessCode.RemainingUses(),
	}, nil
}

// Consume consomme une utilisation du code. C'est le SEUL chemin autorisé à
// modifier currentUses/isActive pour l'inscription ; l'atomicité est
// garantie par le store (mise à jour conditionnelle unique).
func (g *AccessGate) Consume(raw string) (*GateResult, error) {
	code := g.Canonicalize(raw)
	if code == "" {
		return &GateResult{OK: false, Reason: ReasonNotFound, Message: constants.ErrCodeNotFound}, nil
	}

	accessCode, err := g.store.Consume(code)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrCodeNotFound):
			return &GateResult{OK: false, Reason: ReasonNotFound, Message: constants.ErrCodeNotFound}, nil
		case errors.Is(err, database.ErrCodeInactive):
			return &GateResult{OK: false, Reason: ReasonInactive, Message: constants.ErrCodeInactive}, nil
		case errors.Is(err, database.ErrCodeExhausted):
			return &GateResult{OK: false, Reason: ReasonExhausted, Message: constants.ErrCodeExhausted}, nil
		}
		return nil, fmt.Errorf("consommation du code %s: %w", code, err)
	}

	// Dernière utilisation consommée : le store vient de désactiver le
	// code, prévenir les tableaux de bord admin
	if accessCode.RemainingUses() == 0 && g.notifier != nil {
		go g.notifier.NotifyCodeExhausted(accessCode.Code, accessCode.Description)
	}

	return &GateResult{
		OK:            true,
		Code:          accessCode.Code,
		Description:   accessCode.Description,
		RemainingUses: accessCode.RemainingUses(),
	}, nil
}

// Release rend une utilisation consommée quand l'inscription échoue après
// un Consume réussi (collision de username, panne du store). Best-effort :
// l'appelant journalise l'échec sans le propager.
func (g *AccessGate) Release(raw string) error {
	code := g.Canonicalize(raw)
	if code == "" {
		return database.ErrCodeNotFound
	}
	return g.store.Release(code)
}
