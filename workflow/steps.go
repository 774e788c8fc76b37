// ABOUTME: The three workflow steps, in direct and agent-driven variants
// ABOUTME: Steps record failures in state and also report them to the executor
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/ucadmin/agent"
)

const (
	StepListCatalogs = "List Catalogs"
	StepListUsers    = "List Users"
	StepGrantAccess  = "Grant Access"
)

// NoGrantStatus is recorded when the run carries no grant to apply.
const NoGrantStatus = "no grant requested"

type Step interface {
	Name() string
	Run(ctx context.Context, state State) (Update, error)
}

// DirectSteps calls the toolbox without a model. grant may be nil.
func DirectSteps(tools *agent.Toolbox, grant *agent.GrantArgs) []Step {
	return []Step{
		&listCatalogsStep{tools: tools},
		&listUsersStep{tools: tools},
		&grantStep{tools: tools, grant: grant},
	}
}

type listCatalogsStep struct {
	tools *agent.Toolbox
}

func (s *listCatalogsStep) Name() string { return StepListCatalogs }

func (s *listCatalogsStep) Run(ctx context.Context, _ State) (Update, error) {
	catalogs, err := s.tools.ListCatalogsAndSchemas(ctx)
	if err != nil {
		return CatalogListUpdate([]agent.CatalogSchemas{}), err
	}
	return CatalogListUpdate(catalogs), nil
}

type listUsersStep struct {
	tools *agent.Toolbox
}

func (s *listUsersStep) Name() string { return StepListUsers }

func (s *listUsersStep) Run(ctx context.Context, _ State) (Update, error) {
	users, err := s.tools.ListUsersGroups(ctx)
	if err != nil {
		return UserListUpdate(agent.UserList{Users: []string{}, Groups: []string{}}), err
	}
	return UserListUpdate(users), nil
}

type grantStep struct {
	tools *agent.Toolbox
	grant *agent.GrantArgs
}

func (s *grantStep) Name() string { return StepGrantAccess }

func (s *grantStep) Run(ctx context.Context, _ State) (Update, error) {
	if s.grant == nil {
		return GrantStatusUpdate(NoGrantStatus), nil
	}
	res, err := s.tools.Grant(ctx, *s.grant)
	if err != nil {
		return GrantStatusUpdate(agent.GrantFailurePrefix + err.Error()), err
	}
	return GrantStatusUpdate(res.Message), nil
}

// AgentSteps lets a model drive each step through the crew's agents.
func AgentSteps(crew *agent.Crew, grant *agent.GrantArgs) []Step {
	return []Step{
		&agentCatalogsStep{crew: crew},
		&agentUsersStep{crew: crew},
		&agentGrantStep{crew: crew, grant: grant},
	}
}

func toolOutput(outcome agent.Outcome, tool string) (string, error) {
	inv, ok := outcome.Last(tool)
	if !ok {
		return "", fmt.Errorf("agent did not call %s", tool)
	}
	return inv.Output, nil
}

type agentCatalogsStep struct {
	crew *agent.Crew
}

func (s *agentCatalogsStep) Name() string { return StepListCatalogs }

func (s *agentCatalogsStep) Run(ctx context.Context, _ State) (Update, error) {
	empty := CatalogListUpdate([]agent.CatalogSchemas{})

	outcome, err := s.crew.CatalogLister().Run(ctx, "List every catalog in the workspace together with its schemas.")
	if err != nil {
		return empty, err
	}
	out, err := toolOutput(outcome, agent.ToolListCatalogs)
	if err != nil {
		return empty, err
	}

	var catalogs []agent.CatalogSchemas
	if err := json.Unmarshal([]byte(out), &catalogs); err != nil {
		return empty, fmt.Errorf("failed to decode catalog list: %w", err)
	}
	return CatalogListUpdate(catalogs), nil
}

type agentUsersStep struct {
	crew *agent.Crew
}

func (s *agentUsersStep) Name() string { return StepListUsers }

func (s *agentUsersStep) Run(ctx context.Context, _ State) (Update, error) {
	empty := UserListUpdate(agent.UserList{Users: []string{}, Groups: []string{}})

	outcome, err := s.crew.UserGroupLister().Run(ctx, "List every user and group in the workspace.")
	if err != nil {
		return empty, err
	}
	out, err := toolOutput(outcome, agent.ToolListUsersGroup)
	if err != nil {
		return empty, err
	}

	var users agent.UserList
	if err := json.Unmarshal([]byte(out), &users); err != nil {
		return empty, fmt.Errorf("failed to decode user list: %w", err)
	}
	return UserListUpdate(users), nil
}

type agentGrantStep struct {
	crew  *agent.Crew
	grant *agent.GrantArgs
}

func (s *agentGrantStep) Name() string { return StepGrantAccess }

func (s *agentGrantStep) Run(ctx context.Context, _ State) (Update, error) {
	if s.grant == nil {
		return GrantStatusUpdate(NoGrantStatus), nil
	}

	task := fmt.Sprintf("Grant %s on %s %s to %s.",
		s.grant.Privilege, s.grant.ObjectType, s.grant.ObjectName, s.grant.Principal)
	outcome, err := s.crew.AccessManager().Run(ctx, task)
	if err != nil {
		return GrantStatusUpdate(agent.GrantFailurePrefix + err.Error()), err
	}

	status, err := toolOutput(outcome, agent.ToolGrantAccess)
	if err != nil {
		return GrantStatusUpdate(agent.GrantFailurePrefix + err.Error()), err
	}
	if strings.HasPrefix(status, agent.GrantFailurePrefix) {
		return GrantStatusUpdate(status), errors.New(strings.TrimPrefix(status, agent.GrantFailurePrefix))
	}
	return GrantStatusUpdate(status), nil
}
