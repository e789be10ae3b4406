package models

import "time"

type Tool struct {
	ID                 int       `json:"id" db:"id"`
	ToolName           string    `json:"tool_name" db:"tool_name"`
	Quantity           int       `json:"quantity" db:"quantity"`
	Location           string    `json:"location,omitempty" db:"location"`
	Category           string    `json:"category,omitempty" db:"category"`
	IdentificationCode string    `json:"identification_code,omitempty" db:"identification_code"`
	Gauge              string    `json:"gauge,omitempty" db:"gauge"`
	Make               string    `json:"make,omitempty" db:"make"`
	RangeMM            string    `json:"range_mm,omitempty" db:"range_mm"`
	Description        string    `json:"description,omitempty" db:"description"`
	AddedAt            time.Time `json:"added_at" db:"added_at"`
}
