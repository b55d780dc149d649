// internal/models/customer.go
package models

// Customer statuses
const (
	CustomerStatusNew       = "new"
	CustomerStatusContacted = "contacted"
	CustomerStatusActive    = "active"
	CustomerStatusClosed    = "closed"
)

// Consultation and lead statuses
const (
	ConsultationPending = "pending"
	LeadStatusNew       = "new"
	LeadStatusPending   = "pending"
)

type Customer struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	State      string     `json:"state,omitempty"`
	PropertyID string     `json:"propertyId,omitempty"`
	Status     string     `json:"status"`
	Source     string     `json:"source"`
	Notes      []Note     `json:"notes"`
	Activities []Activity `json:"activities"`
	CreatedAt  string     `json:"createdAt"`
	UpdatedAt  string     `json:"updatedAt"`
}

type Note struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
	CreatedBy string `json:"createdBy"`
}

type Activity struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
}

// CustomerInput is the registration form payload.
type CustomerInput struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	State      string `json:"state,omitempty"`
	PropertyID string `json:"propertyId,omitempty"`
	Source     string `json:"source,omitempty"`
	Status     string `json:"status,omitempty"`
}

// CustomerPatch is a shallow update; nil fields are left alone.
type CustomerPatch struct {
	Name       *string `json:"name,omitempty"`
	Email      *string `json:"email,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	State      *string `json:"state,omitempty"`
	PropertyID *string `json:"propertyId,omitempty"`
	Status     *string `json:"status,omitempty"`
	Source     *string `json:"source,omitempty"`
}

type Consultation struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	State            string `json:"state,omitempty"`
	ConsultationType string `json:"consultationType,omitempty"`
	Message          string `json:"message,omitempty"`
	PropertyID       string `json:"propertyId,omitempty"`
	Priority         string `json:"priority"`
	Status           string `json:"status"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

type ConsultationInput struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	State            string `json:"state,omitempty"`
	ConsultationType string `json:"consultationType,omitempty"`
	Message          string `json:"message,omitempty"`
	PropertyID       string `json:"propertyId,omitempty"`
}

type Lead struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Email             string        `json:"email"`
	Phone             string        `json:"phone"`
	State             string        `json:"state,omitempty"`
	PropertyID        string        `json:"propertyId,omitempty"`
	ConsultationType  string        `json:"consultationType,omitempty"`
	Message           string        `json:"message,omitempty"`
	Source            string        `json:"source"`
	Status            string        `json:"status"`
	Priority          string        `json:"priority,omitempty"`
	Budget            float64       `json:"budget,omitempty"`
	MaxPrice          float64       `json:"maxPrice,omitempty"`
	PreferredLocation string        `json:"preferredLocation,omitempty"`
	City              string        `json:"city,omitempty"`
	Bedrooms          int           `json:"bedrooms,omitempty"`
	MinBedrooms       int           `json:"minBedrooms,omitempty"`
	PropertyType      string        `json:"propertyType,omitempty"`
	Interactions      []Interaction `json:"interactions"`
	Tasks             []Task        `json:"tasks"`
	CreatedAt         string        `json:"createdAt"`
	UpdatedAt         string        `json:"updatedAt"`
}

type LeadInput struct {
	Name              string  `json:"name"`
	Email             string  `json:"email"`
	Phone             string  `json:"phone"`
	State             string  `json:"state,omitempty"`
	PropertyID        string  `json:"propertyId,omitempty"`
	ConsultationType  string  `json:"consultationType,omitempty"`
	Message           string  `json:"message,omitempty"`
	Source            string  `json:"source,omitempty"`
	Budget            float64 `json:"budget,omitempty"`
	PreferredLocation string  `json:"preferredLocation,omitempty"`
	Bedrooms          int     `json:"bedrooms,omitempty"`
	PropertyType      string  `json:"propertyType,omitempty"`
}

type Interaction struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	CreatedBy   string `json:"createdBy"`
}

type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	DueDate     string `json:"dueDate,omitempty"`
	Completed   bool   `json:"completed"`
	CompletedAt string `json:"completedAt,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

type DashboardStats struct {
	TotalCustomers            int `json:"totalCustomers"`
	NewCustomersToday         int `json:"newCustomersToday"`
	NewCustomersThisWeek      int `json:"newCustomersThisWeek"`
	NewCustomersThisMonth     int `json:"newCustomersThisMonth"`
	TotalConsultations        int `json:"totalConsultations"`
	PendingConsultations      int `json:"pendingConsultations"`
	HighPriorityConsultations int `json:"highPriorityConsultations"`
	TotalLeads                int `json:"totalLeads"`
	NewLeadsToday             int `json:"newLeadsToday"`
}
