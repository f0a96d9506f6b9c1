package models

// HandlerDashboard is the dashboard payload for HANDLER, TRAINER and AIDE
// accounts.
type HandlerDashboard struct {
	ProfileComplete int                `json:"profile_complete"`
	Checklist       []ChecklistItem    `json:"checklist"`
	Agreements      []AgreementSummary `json:"agreements"`
	Dogs            DogStats           `json:"dogs"`
}

// TrainerDashboard is the dashboard payload for TRAINER accounts.
type TrainerDashboard struct {
	ActiveClients  int `json:"active_clients"`
	DogsInTraining int `json:"dogs_in_training"`
}

// AdminDashboard is the dashboard payload for ADMIN and SUPER_ADMIN accounts.
type AdminDashboard struct {
	TotalUsers         int        `json:"total_users"`
	IncompleteProfiles int        `json:"incomplete_profiles"`
	TotalDogs          int        `json:"total_dogs"`
	RecentActivity     []AuditLog `json:"recent_activity"`
}
