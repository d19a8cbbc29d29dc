package models

import "gorm.io/gorm"

// LaborRecord is the legacy one-rate-per-product labor costing entity kept
// alongside the itemized labor inputs on recipes. LaborCostPerPie is derived
// (costPerHour x minutesPerPie / 60, clamped at zero) and recomputed whenever
// either input changes; the recipe calculator never consults these records.
type LaborRecord struct {
	gorm.Model
	PieName         string  `gorm:"not null;uniqueIndex:idx_labor_records_pie_owner" json:"pie_name"`
	CostPerHour     float64 `gorm:"not null" json:"cost_per_hour"`
	MinutesPerPie   float64 `gorm:"not null" json:"minutes_per_pie"`
	LaborCostPerPie float64 `gorm:"not null" json:"labor_cost_per_pie"`
	OwnerID         uint    `gorm:"not null;uniqueIndex:idx_labor_records_pie_owner" json:"owner_id"`
	Owner           *User   `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}
