package dashboard

import "fmt"

// RoleCard is the selectable-card contract for the onboarding role picker.
type RoleCard struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Selected    bool   `json:"selected"`
}

var roleCatalog = []RoleCard{
	{ID: "citizen", Title: "Citizen", Description: "Submit and track complaints", Icon: "user"},
	{ID: "agent", Title: "Department Agent", Description: "Work assigned complaints", Icon: "briefcase"},
	{ID: "admin", Title: "Administrator", Description: "Oversee escalations and SLA", Icon: "shield"},
}

// Roles returns the role catalog with at most one card selected.
func Roles(selected string) ([]RoleCard, error) {
	out := make([]RoleCard, len(roleCatalog))
	copy(out, roleCatalog)
	if selected == "" {
		return out, nil
	}
	found := false
	for i := range out {
		if out[i].ID == selected {
			out[i].Selected = true
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("unknown role %q", selected)
	}
	return out, nil
}
