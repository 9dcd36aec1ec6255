package dto

// UserInfo is the profile summary fetched after a successful code
// exchange.
type UserInfo struct {
	UserID     string `json:"user_id"`
	FullName   string `json:"full_name"`
	ProfileURL string `json:"profile_url"`
}

// Company is one accounting entity the user can act under.
type Company struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TenantSelection lists the user's companies and which one is active.
type TenantSelection struct {
	Companies  []Company `json:"companies"`
	SelectedID string    `json:"selected_id"`
}

// SessionInfo is what the whoami endpoint returns.
type SessionInfo struct {
	UserID     string   `json:"user_id"`
	FullName   string   `json:"full_name"`
	ProfileURL string   `json:"profile_url"`
	TenantID   string   `json:"tenant_id,omitempty"`
	TenantIDs  []string `json:"tenant_ids,omitempty"`
}
