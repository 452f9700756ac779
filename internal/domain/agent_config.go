package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"
)

type AgentType string

const (
	AgentTypeIdeation AgentType = "ideation"
	AgentTypeResearch AgentType = "research"
	AgentTypeContent  AgentType = "content"
	AgentTypeEditor   AgentType = "editor"
)

func (t AgentType) IsValid() bool {
	switch t {
	case AgentTypeIdeation, AgentTypeResearch, AgentTypeContent, AgentTypeEditor:
		return true
	}
	return false
}

// AgentExample is a few-shot input/output pair given to an agent
type AgentExample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// AgentExamples is a slice of AgentExample with database serialization methods
type AgentExamples []AgentExample

// Value implements the driver.Valuer interface for database serialization
func (e AgentExamples) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e)
}

// Scan implements the sql.Scanner interface for database deserialization
func (e *AgentExamples) Scan(value interface{}) error {
	if value == nil {
		*e = AgentExamples{}
		return nil
	}
	v, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes.Clone(v), e)
}

// AgentParameters holds free-form model parameters (temperature, max tokens...)
type AgentParameters map[string]interface{}

func (p AgentParameters) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func (p *AgentParameters) Scan(value interface{}) error {
	if value == nil {
		*p = AgentParameters{}
		return nil
	}
	v, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes.Clone(v), p)
}

// AgentConfig customizes one AI agent for a workspace. At most one config per
// (workspace, agent type) is the default.
type AgentConfig struct {
	ID           string          `json:"id"`
	WorkspaceID  string          `json:"workspace_id"`
	AgentType    AgentType       `json:"agent_type"`
	Name         string          `json:"name"`
	Instructions string          `json:"instructions"`
	Examples     AgentExamples   `json:"examples"`
	Parameters   AgentParameters `json:"parameters"`
	IsDefault    bool            `json:"is_default"`
	CreatedBy    string          `json:"created_by"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type CreateAgentConfigRequest struct {
	WorkspaceID  string          `json:"workspace_id"`
	AgentType    AgentType       `json:"agent_type"`
	Name         string          `json:"name"`
	Instructions string          `json:"instructions"`
	Examples     AgentExamples   `json:"examples"`
	Parameters   AgentParameters `json:"parameters"`
	IsDefault    bool            `json:"is_default"`
}

func (r *CreateAgentConfigRequest) Validate() error {
	if err := validateWorkspaceID(r.WorkspaceID); err != nil {
		return err
	}
	if !r.AgentType.IsValid() {
		return NewValidationError(fmt.Sprintf("invalid agent type %q", r.AgentType))
	}
	if err := validateTitle("name", r.Name); err != nil {
		return err
	}
	if strings.TrimSpace(r.Instructions) == "" {
		return NewValidationError("instructions are required")
	}
	return validateExamples(r.Examples)
}

func (r *CreateAgentConfigRequest) NewAgentConfig(createdBy string) *AgentConfig {
	now := time.Now().UTC()
	examples := r.Examples
	if examples == nil {
		examples = AgentExamples{}
	}
	params := r.Parameters
	if params == nil {
		params = AgentParameters{}
	}
	return &AgentConfig{
		ID:           uuid.New().String(),
		WorkspaceID:  r.WorkspaceID,
		AgentType:    r.AgentType,
		Name:         strings.TrimSpace(r.Name),
		Instructions: r.Instructions,
		Examples:     examples,
		Parameters:   params,
		IsDefault:    r.IsDefault,
		CreatedBy:    createdBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

type AgentConfigPatch struct {
	Name         *string          `json:"name,omitempty"`
	Instructions *string          `json:"instructions,omitempty"`
	Examples     *AgentExamples   `json:"examples,omitempty"`
	Parameters   *AgentParameters `json:"parameters,omitempty"`
	IsDefault    *bool            `json:"is_default,omitempty"`
}

func (p *AgentConfigPatch) Validate() error {
	if p.Name == nil && p.Instructions == nil && p.Examples == nil && p.Parameters == nil && p.IsDefault == nil {
		return NewValidationError("no fields to update")
	}
	if p.Name != nil {
		if err := validateTitle("name", *p.Name); err != nil {
			return err
		}
	}
	if p.Instructions != nil && strings.TrimSpace(*p.Instructions) == "" {
		return NewValidationError("instructions cannot be empty")
	}
	if p.Examples != nil {
		return validateExamples(*p.Examples)
	}
	return nil
}

func validateExamples(examples AgentExamples) error {
	for i, ex := range examples {
		if strings.TrimSpace(ex.Input) == "" || strings.TrimSpace(ex.Output) == "" {
			return NewValidationError(fmt.Sprintf("example %d must have both input and output", i))
		}
		if !govalidator.IsByteLength(ex.Input, 1, 20000) || !govalidator.IsByteLength(ex.Output, 1, 20000) {
			return NewValidationError(fmt.Sprintf("example %d is too long", i))
		}
	}
	return nil
}

type AgentConfigRepository = ResourceStore[AgentConfig, AgentConfigPatch]
