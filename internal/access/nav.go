package access

import "campusportal/portal/internal/role"

// NavItem is one sidebar entry.
type NavItem struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// Navigation lists the labelled routes r may open, in table order.
func (g *Guard) Navigation(r role.Role) []NavItem {
	items := []NavItem{}
	for _, route := range routes {
		if route.Label == "" || !route.Roles.Has(r) {
			continue
		}
		items = append(items, NavItem{Path: g.prefix + "/" + route.Path, Label: route.Label})
	}
	return items
}
