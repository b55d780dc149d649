// internal/workers/workflow/process-scheduled-workflows/models.go
package processscheduledworkflows

// Input is empty; the sweep covers every active instance.
type Input struct{}

type Output struct {
	Checked     int    `json:"checked"`
	Executed    int    `json:"executed"`
	Failed      int    `json:"failed"`
	ProcessedAt string `json:"processedAt"`
}
