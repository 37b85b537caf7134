package agent

import (
	"sort"
	"sync"

	appErr "codescout/internal/pkg/errors"
)

// Config describes one agent type the backend can query.
type Config struct {
	AgentType    string   `json:"agent_type"`
	AgentName    string   `json:"agent_name"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
}

// Status is the externally visible state of one agent type.
type Status struct {
	Config
	Status   string `json:"status"`
	IsActive bool   `json:"is_active"`
}

// Catalog is the fixed set of agent types. Capability-card configuration is
// external; the catalog only validates types and reports status.
type Catalog struct {
	mu      sync.Mutex
	configs map[string]Config
	active  map[string]bool
}

func NewCatalog() *Catalog {
	configs := map[string]Config{
		"orchestrator": {
			AgentType:    "orchestrator",
			AgentName:    "Orchestrator Agent",
			Description:  "Orchestrates complex code search and analysis tasks",
			Capabilities: []string{"task_orchestration", "agent_coordination", "workflow_management"},
		},
		"code_search": {
			AgentType:    "code_search",
			AgentName:    "Code Search Agent",
			Description:  "Performs semantic code search and analysis across codebases",
			Capabilities: []string{"semantic_search", "pattern_matching", "code_analysis"},
		},
		"code_analysis": {
			AgentType:    "code_analysis",
			AgentName:    "Code Analysis Agent",
			Description:  "Performs static code analysis and code quality assessment",
			Capabilities: []string{"static_analysis", "code_quality", "refactoring_suggestions"},
		},
		"code_documentation": {
			AgentType:    "code_documentation",
			AgentName:    "Code Documentation Agent",
			Description:  "Generates and analyzes code documentation and comments",
			Capabilities: []string{"documentation_generation", "docstring_creation", "code_comments"},
		},
	}
	return &Catalog{configs: configs, active: make(map[string]bool)}
}

// Validate returns ErrValidation for unknown agent types.
func (c *Catalog) Validate(agentType string) error {
	if _, ok := c.configs[agentType]; !ok {
		return appErr.ErrValidation
	}
	return nil
}

// MarkActive records that an agent type served at least one query.
func (c *Catalog) MarkActive(agentType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.configs[agentType]; ok {
		c.active[agentType] = true
	}
}

func (c *Catalog) StatusOf(agentType string) (Status, error) {
	config, ok := c.configs[agentType]
	if !ok {
		return Status{}, appErr.ErrValidation
	}
	c.mu.Lock()
	active := c.active[agentType]
	c.mu.Unlock()
	status := "inactive"
	if active {
		status = "active"
	}
	return Status{Config: config, Status: status, IsActive: active}, nil
}

func (c *Catalog) AllStatuses() []Status {
	types := make([]string, 0, len(c.configs))
	for agentType := range c.configs {
		types = append(types, agentType)
	}
	sort.Strings(types)
	statuses := make([]Status, 0, len(types))
	for _, agentType := range types {
		status, _ := c.StatusOf(agentType)
		statuses = append(statuses, status)
	}
	return statuses
}
