package presentation

import (
	"strings"

	"github.com/skylite-app/skylite/internal/models"
)

// AttributionLinks drops entries missing either text or url.
func AttributionLinks(list []models.Attribution) []models.Attribution {
	links := make([]models.Attribution, 0, len(list))
	for _, a := range list {
		if strings.TrimSpace(a.Text) == "" || strings.TrimSpace(a.URL) == "" {
			continue
		}
		links = append(links, a)
	}
	return links
}
