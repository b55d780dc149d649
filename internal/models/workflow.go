// internal/models/workflow.go
package models

// Step statuses
const (
	StepWaiting   = "waiting"
	StepPending   = "pending"
	StepExecuting = "executing"
	StepCompleted = "completed"
	StepFailed    = "failed"
)

// Workflow statuses
const (
	WorkflowActive    = "active"
	WorkflowPaused    = "paused"
	WorkflowCompleted = "completed"
	WorkflowCancelled = "cancelled"
)

// WorkflowStep is a preset step definition. Delay is in hours.
type WorkflowStep struct {
	ID          string  `json:"id" yaml:"id"`
	Action      string  `json:"action" yaml:"action"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Template    string  `json:"template,omitempty" yaml:"template,omitempty"`
	Channel     string  `json:"channel,omitempty" yaml:"channel,omitempty"`
	Delay       float64 `json:"delay" yaml:"delay"`
	AIEnabled   bool    `json:"aiEnabled" yaml:"aiEnabled"`
	Recurring   string  `json:"recurring,omitempty" yaml:"recurring,omitempty"`
}

type WorkflowPreset struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description" yaml:"description"`
	Icon        string            `json:"icon,omitempty" yaml:"icon,omitempty"`
	Steps       []WorkflowStep    `json:"steps" yaml:"steps"`
	AIPrompts   map[string]string `json:"aiPrompts,omitempty" yaml:"aiPrompts,omitempty"`
}

type StepResult struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

type StepInstance struct {
	WorkflowStep
	Status       string      `json:"status"`
	ScheduledFor string      `json:"scheduledFor,omitempty"`
	StartedAt    string      `json:"startedAt,omitempty"`
	CompletedAt  string      `json:"completedAt,omitempty"`
	Result       *StepResult `json:"result,omitempty"`
}

type WorkflowInstance struct {
	ID          string         `json:"id"`
	WorkflowID  string         `json:"workflowId"`
	LeadID      string         `json:"leadId"`
	BrokerID    string         `json:"brokerId"`
	Status      string         `json:"status"`
	CurrentStep int            `json:"currentStep"`
	Steps       []StepInstance `json:"steps"`
	StartedAt   string         `json:"startedAt"`
	CompletedAt string         `json:"completedAt,omitempty"`
	PausedAt    string         `json:"pausedAt,omitempty"`
	ResumedAt   string         `json:"resumedAt,omitempty"`
	CancelledAt string         `json:"cancelledAt,omitempty"`
}

// SweepResult summarizes one scheduled-workflow sweep.
type SweepResult struct {
	Checked  int `json:"checked"`
	Executed int `json:"executed"`
	Failed   int `json:"failed"`
}
