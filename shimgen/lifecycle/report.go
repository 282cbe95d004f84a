package lifecycle

// Op names a filesystem action in the plan
type Op string

const (
	OpWrite  Op = "WRITE"
	OpMove   Op = "MOVE"
	OpDelete Op = "DELETE"
	OpSkip   Op = "SKIP"
	OpFail   Op = "FAIL"
)

// PlanItem is one action taken, or one that would be taken in dry-run
type PlanItem struct {
	Op     Op     `json:"op"`
	Path   string `json:"path"`
	From   string `json:"from,omitempty"`
	Class  string `json:"class,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Report counts lifecycle actions over a run
type Report struct {
	Written int        `json:"written"`
	Skipped int        `json:"skipped"`
	Moves   int        `json:"moves"`
	Deletes int        `json:"deletes"`
	Failed  int        `json:"failed"`
	DryRun  bool       `json:"dry_run"`
	Plan    []PlanItem `json:"plan"`
}

// Outcome is the result of applying one output
type Outcome struct {
	Path    string
	Op      Op // OpWrite, OpSkip or OpFail
	Reason  string
	Moved   []string // previous locations removed after the write
	Deleted []string // stale outputs of the same source removed
}
