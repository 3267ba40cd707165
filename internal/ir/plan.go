package ir

// Plan represents a local preview of what a deploy would do.
type Plan struct {
	StackName string            `json:"stack_name"`
	Changes   []*ResourceChange `json:"changes"`
	Summary   *PlanSummary      `json:"summary"`
}

type ResourceChange struct {
	Key             Key                      `json:"-"`
	ID              string                   `json:"id"`
	Service         Service                  `json:"service"`
	Action          string                   `json:"action"` // "CREATE", "UPDATE", "NOOP", "ORPHANED"
	PriorPhysicalID *PhysicalID              `json:"prior_physical_id,omitempty"`
	Diff            map[string]*PropertyDiff `json:"diff,omitempty"`
}

type PropertyDiff struct {
	Before any    `json:"before,omitempty"`
	After  any    `json:"after,omitempty"`
	Action string `json:"action"` // "create", "update", "delete"
}

type PlanSummary struct {
	Create   int `json:"create"`
	Update   int `json:"update"`
	NoOp     int `json:"noop"`
	Orphaned int `json:"orphaned"`
}

const (
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionNoOp     = "NOOP"
	ActionOrphaned = "ORPHANED"
)
