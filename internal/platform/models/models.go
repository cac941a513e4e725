package models

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusCanceled  SubscriptionStatus = "canceled"
)

type Role string

// RoleAdmin is granted to the first user of a newly registered organization.
const RoleAdmin Role = "ADMIN"

// Organization is the tenant. ID is assigned by the datastore on insert and
// Name is unique across the datastore.
type Organization struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	ActivePlan         string             `json:"active_plan"`
	PaymentMethod      string             `json:"payment_method"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	CreatedAt          int64              `json:"created_at"`
}

// User belongs to exactly one organization. OrgID is the authoritative
// reference; OrgName is a denormalized copy.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	OrgName      string `json:"org_name"`
	OrgID        string `json:"org_id"`
	Role         Role   `json:"role"`
	TaxID        string `json:"tax_id"`
	Whatsapp     string `json:"whatsapp"`
	CreatedAt    int64  `json:"created_at"`
}
