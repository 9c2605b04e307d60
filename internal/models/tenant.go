// internal/models/tenant.go
package models

import "time"

// Tenant is the minimal tenant directory entry the engine reads. The
// display name feeds the auto-enriched tenantName template variable.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}
