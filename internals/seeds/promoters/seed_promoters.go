// file: internals/seeds/promoters/seed_promoters.go
package promoters

import (
	"encoding/json"
	"log"
	"os"

	"gorm.io/gorm"

	"soundfactory_backend/internals/features/payment/commissions/model"
)

type PromoterSeed struct {
	Name              string  `json:"name"`
	Code              string  `json:"code"`
	CommissionRateBps int64   `json:"commission_rate_bps"`
	StripeAccountID   *string `json:"stripe_account_id"`
	StripeConnected   bool    `json:"stripe_connected"`
}

// SeedPromotersFromJSON loads demo promoters, skipping codes that already
// exist. Local/dev only.
func SeedPromotersFromJSON(db *gorm.DB, filePath string) {
	log.Println("📥 reading seed file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("❌ failed to read seed JSON: %v", err)
	}

	var seeds []PromoterSeed
	if err := json.Unmarshal(file, &seeds); err != nil {
		log.Fatalf("❌ failed to decode seed JSON: %v", err)
	}

	var existingCodes []string
	if err := db.Model(&model.PromoterModel{}).
		Select("promoter_code").
		Find(&existingCodes).Error; err != nil {
		log.Fatalf("❌ failed to load existing promoter codes: %v", err)
	}
	existing := make(map[string]bool, len(existingCodes))
	for _, code := range existingCodes {
		existing[code] = true
	}

	var rows []model.PromoterModel
	for _, s := range seeds {
		if existing[s.Code] {
			log.Printf("ℹ️ promoter '%s' already exists, skipped", s.Code)
			continue
		}
		rows = append(rows, model.PromoterModel{
			PromoterName:              s.Name,
			PromoterCode:              s.Code,
			PromoterCommissionRateBps: s.CommissionRateBps,
			PromoterStripeAccountID:   s.StripeAccountID,
			PromoterStripeConnected:   s.StripeConnected,
		})
	}

	if len(rows) > 0 {
		if err := db.Create(&rows).Error; err != nil {
			log.Fatalf("❌ failed to insert promoters: %v", err)
		}
		log.Printf("✅ seeded %d promoters", len(rows))
	} else {
		log.Println("ℹ️ no new promoters to seed")
	}
}
