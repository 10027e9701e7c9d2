package seeds

import (
	"gorm.io/gorm"

	"soundfactory_backend/internals/seeds/promoters"
	"soundfactory_backend/internals/seeds/venues"
)

// RunAllSeeds loads the local/dev dataset. Each seeder skips rows that
// already exist, so re-running is safe.
func RunAllSeeds(db *gorm.DB) {
	venues.SeedVenueTablesFromJSON(db, "internals/seeds/venues/data_venue_tables.json")
	promoters.SeedPromotersFromJSON(db, "internals/seeds/promoters/data_promoters.json")
}
