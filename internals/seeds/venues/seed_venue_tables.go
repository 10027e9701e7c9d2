// file: internals/seeds/venues/seed_venue_tables.go
package venues

import (
	"encoding/json"
	"log"
	"os"

	"gorm.io/gorm"

	"soundfactory_backend/internals/features/payment/settlement/model"
)

type VenueTableSeed struct {
	Label  string `json:"label"`
	Status string `json:"status"`
}

// SeedVenueTablesFromJSON loads the floor layout, skipping labels that
// already exist. Local/dev only.
func SeedVenueTablesFromJSON(db *gorm.DB, filePath string) {
	log.Println("📥 reading seed file:", filePath)

	file, err := os.ReadFile(filePath)
	if err != nil {
		log.Fatalf("❌ failed to read seed JSON: %v", err)
	}

	var seeds []VenueTableSeed
	if err := json.Unmarshal(file, &seeds); err != nil {
		log.Fatalf("❌ failed to decode seed JSON: %v", err)
	}

	var existingLabels []string
	if err := db.Model(&model.VenueTableModel{}).
		Select("venue_table_label").
		Find(&existingLabels).Error; err != nil {
		log.Fatalf("❌ failed to load existing table labels: %v", err)
	}
	existing := make(map[string]bool, len(existingLabels))
	for _, label := range existingLabels {
		existing[label] = true
	}

	var rows []model.VenueTableModel
	for _, s := range seeds {
		if existing[s.Label] {
			log.Printf("ℹ️ table '%s' already exists, skipped", s.Label)
			continue
		}
		status := model.VenueTableStatus(s.Status)
		if status == "" {
			status = model.VenueTableStatusAvailable
		}
		rows = append(rows, model.VenueTableModel{
			VenueTableLabel:  s.Label,
			VenueTableStatus: status,
		})
	}

	if len(rows) > 0 {
		if err := db.Create(&rows).Error; err != nil {
			log.Fatalf("❌ failed to insert venue tables: %v", err)
		}
		log.Printf("✅ seeded %d venue tables", len(rows))
	} else {
		log.Println("ℹ️ no new venue tables to seed")
	}
}
