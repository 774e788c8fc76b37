// ABOUTME: Graphviz renderings of the access workflow and the catalog hierarchy
// ABOUTME: Produces DOT source for piping into dot or viewing in the dashboards
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/ucadmin/agent"
	"github.com/harperreed/ucadmin/workflow"
)

const (
	startNode = "START"
	endNode   = "END"
)

func render(ctx context.Context, build func(*cgraph.Graph) error) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	if err := build(graph); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

var statusColors = map[workflow.StepStatus]string{
	workflow.StepOK:      "palegreen",
	workflow.StepFailed:  "lightcoral",
	workflow.StepSkipped: "lightgrey",
}

// WorkflowGraph draws START, the steps in order, then END. When run is given,
// each step is colored by its outcome.
func WorkflowGraph(ctx context.Context, steps []string, run *workflow.Run) (string, error) {
	status := make(map[string]workflow.StepStatus)
	if run != nil {
		for _, s := range run.Steps {
			status[s.Name] = s.Status
		}
	}

	return render(ctx, func(graph *cgraph.Graph) error {
		graph.SetRankDir(cgraph.LRRank)
		graph.SetLabel("Unity Catalog access workflow")

		prev, err := graph.CreateNodeByName(startNode)
		if err != nil {
			return fmt.Errorf("failed to create node: %w", err)
		}
		prev.SetShape(cgraph.CircleShape)

		for _, name := range steps {
			node, err := graph.CreateNodeByName(name)
			if err != nil {
				return fmt.Errorf("failed to create node %s: %w", name, err)
			}
			node.SetShape(cgraph.BoxShape)
			if color, ok := statusColors[status[name]]; ok {
				node.SetStyle(cgraph.FilledNodeStyle)
				node.SetFillColor(color)
			}
			if _, err := graph.CreateEdgeByName("", prev, node); err != nil {
				return fmt.Errorf("failed to create edge: %w", err)
			}
			prev = node
		}

		end, err := graph.CreateNodeByName(endNode)
		if err != nil {
			return fmt.Errorf("failed to create node: %w", err)
		}
		end.SetShape(cgraph.DoubleCircleShape)
		if _, err := graph.CreateEdgeByName("", prev, end); err != nil {
			return fmt.Errorf("failed to create edge: %w", err)
		}
		return nil
	})
}

// CatalogGraph draws each catalog with an edge to every one of its schemas.
func CatalogGraph(ctx context.Context, catalogs []agent.CatalogSchemas) (string, error) {
	return render(ctx, func(graph *cgraph.Graph) error {
		graph.SetRankDir(cgraph.LRRank)
		graph.SetLabel("Catalogs and schemas")

		for _, c := range catalogs {
			cat, err := graph.CreateNodeByName(c.Catalog)
			if err != nil {
				return fmt.Errorf("failed to create node %s: %w", c.Catalog, err)
			}
			cat.SetShape(cgraph.BoxShape)
			cat.SetStyle(cgraph.FilledNodeStyle)
			cat.SetFillColor("lightblue")

			for _, s := range c.Schemas {
				// Schema names repeat across catalogs, so nodes are keyed by full name.
				schema, err := graph.CreateNodeByName(c.Catalog + "." + s)
				if err != nil {
					return fmt.Errorf("failed to create node %s: %w", s, err)
				}
				schema.SetLabel(s)
				schema.SetShape(cgraph.EllipseShape)
				if _, err := graph.CreateEdgeByName("", cat, schema); err != nil {
					return fmt.Errorf("failed to create edge: %w", err)
				}
			}
		}
		return nil
	})
}
