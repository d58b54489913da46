package domain

import (
	"time"
)

// EnrolledIdentity is one employee's active face enrollment. Each employee
// has at most one active embedding: re-enrollment replaces it.
type EnrolledIdentity struct {
	EmployeeID  int64     `json:"employee_id"`
	DisplayName string    `json:"display_name"`
	Department  string    `json:"department,omitempty"`
	PhotoRef    string    `json:"photo_ref,omitempty"`
	Embedding   []float64 `json:"-"`
	EnrolledAt  time.Time `json:"enrolled_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
