package output

import (
	"encoding/json"
	"io"
	"time"

	"github.com/sdejongh/ddiff/pkg/models"
)

// JSONFormatter formats output as JSON for automation and scripting
type JSONFormatter struct{}

// JSONResultData represents the complete result of a run
type JSONResultData struct {
	RunID      string        `json:"run_id"`
	Input1     string        `json:"input1"`
	Input2     string        `json:"input2"`
	Engine     string        `json:"engine,omitempty"`
	Status     string        `json:"status"`
	Different  bool          `json:"different"`
	ExitCode   int           `json:"exit_code"`
	StartTime  string        `json:"start_time"`
	Duration   string        `json:"duration"`
	DurationMs int64         `json:"duration_ms"`
	Lines      []string      `json:"lines"`
	Stats      JSONStatsData `json:"stats"`
	Error      string        `json:"error,omitempty"`
}

// JSONStatsData represents statistics in JSON format
type JSONStatsData struct {
	ItemsCompared int `json:"items_compared"`
	LeftOnly      int `json:"left_only"`
	RightOnly     int `json:"right_only"`
	Unsupported   int `json:"unsupported"`
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes the result as a single indented JSON document
func (f *JSONFormatter) Format(w io.Writer, result *models.DiffResult) error {
	lines := result.Lines
	if lines == nil {
		lines = []string{}
	}

	data := JSONResultData{
		RunID:      result.RunID,
		Input1:     result.Input1,
		Input2:     result.Input2,
		Engine:     result.Engine,
		Status:     string(result.Status),
		Different:  result.Status == models.StatusDifferent,
		ExitCode:   result.Status.ExitCode(),
		StartTime:  result.StartTime.Format(time.RFC3339),
		Duration:   result.Duration.Round(time.Millisecond).String(),
		DurationMs: result.Duration.Milliseconds(),
		Lines:      lines,
		Stats: JSONStatsData{
			ItemsCompared: result.Stats.ItemsCompared,
			LeftOnly:      result.Stats.LeftOnly,
			RightOnly:     result.Stats.RightOnly,
			Unsupported:   result.Stats.Unsupported,
		},
		Error: result.Error,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Name returns the formatter name
func (f *JSONFormatter) Name() string {
	return "json"
}
