// ABOUTME: Terminal overview of the workspace directory
// ABOUTME: Counts catalogs, schemas and principals and draws schema bars per catalog
package viz

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/cache"
)

type DashboardStats struct {
	Catalogs       []agent.CatalogSchemas
	TotalCatalogs  int
	TotalSchemas   int
	TotalUsers     int
	TotalGroups    int
	Cache          cache.Stats
	LastRunSummary string
}

// GenerateDashboardStats gathers counts through the toolbox, which reads from the cache.
func GenerateDashboardStats(ctx context.Context, tools *agent.Toolbox) (*DashboardStats, error) {
	catalogs, err := tools.ListCatalogsAndSchemas(ctx)
	if err != nil {
		return nil, err
	}
	users, err := tools.ListUsersGroups(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		Catalogs:      catalogs,
		TotalCatalogs: len(catalogs),
		TotalUsers:    len(users.Users),
		TotalGroups:   len(users.Groups),
	}
	for _, c := range catalogs {
		stats.TotalSchemas += len(c.Schemas)
	}
	return stats, nil
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  UNITY CATALOG ADMIN\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("SCHEMAS PER CATALOG\n")
	renderCatalogBars(&out, stats.Catalogs)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📚 %d catalogs  🗂  %d schemas  👤 %d users  👥 %d groups\n",
		stats.TotalCatalogs, stats.TotalSchemas, stats.TotalUsers, stats.TotalGroups))
	out.WriteString(fmt.Sprintf("  cache: %d entries, %d hits, %d misses\n",
		stats.Cache.Entries, stats.Cache.Hits, stats.Cache.Misses))

	if stats.LastRunSummary != "" {
		out.WriteString("\nLAST WORKFLOW RUN\n")
		out.WriteString("  " + stats.LastRunSummary + "\n")
	}

	return out.String()
}

func renderCatalogBars(out *strings.Builder, catalogs []agent.CatalogSchemas) {
	if len(catalogs) == 0 {
		out.WriteString("  (no catalogs)\n")
		return
	}

	maxCount := 0
	for _, c := range catalogs {
		if len(c.Schemas) > maxCount {
			maxCount = len(c.Schemas)
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for _, c := range catalogs {
		barLength := (len(c.Schemas) * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-20s %s  %2d\n", c.Catalog, bar, len(c.Schemas)))
	}
}
