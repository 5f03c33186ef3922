package services

import (
	"log"
	"time"

	"galerie-admin-backend/database"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/mongo"
)

// clickPurger supprime les clics antérieurs à une date
type clickPurger interface {
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// RetentionCron purge périodiquement les clics plus anciens que la
// durée de rétention configurée. Une rétention nulle ou négative
// désactive complètement la purge.
type RetentionCron struct {
	clickRepo     clickPurger
	retentionDays int
	cron          *cron.Cron
}

// NewRetentionCron crée une nouvelle instance
func NewRetentionCron(db *mongo.Database, retentionDays int) *RetentionCron {
	return &RetentionCron{
		clickRepo:     database.NewClickRepository(db),
		retentionDays: retentionDays,
		cron:          cron.New(),
	}
}

// Start démarre le cron job. Une purge est aussi exécutée immédiatement
// pour rattraper les périodes d'arrêt du serveur. Ne fait rien quand la
// rétention est désactivée (retentionDays <= 0).
func (rc *RetentionCron) Start() {
	if rc.retentionDays <= 0 {
		log.Println("⚠️  Rétention des clics désactivée, aucune purge planifiée")
		return
	}

	rc.cron.AddFunc("@daily", rc.purgeOldClicks)
	rc.cron.Start()
	log.Printf("✓ Cron job rétention démarré (purge quotidienne, rétention %d jours)", rc.retentionDays)

	go rc.purgeOldClicks()
}

// Stop arrête le cron job
func (rc *RetentionCron) Stop() {
	rc.cron.Stop()
}

// purgeOldClicks supprime les clics au-delà de la période de rétention
func (rc *RetentionCron) purgeOldClicks() {
	// Garde-fou : sans rétention positive, le cutoff serait "maintenant"
	// et la purge viderait tout le journal
	if rc.retentionDays <= 0 {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -rc.retentionDays)

	deleted, err := rc.clickRepo.DeleteOlderThan(cutoff)
	if err != nil {
		log.Printf("Erreur purge des clics: %v", err)
		return
	}

	if deleted > 0 {
		log.Printf("🧹 %d clic(s) antérieur(s) au %s supprimé(s)", deleted, cutoff.Format("2006-01-02"))
	}
}
