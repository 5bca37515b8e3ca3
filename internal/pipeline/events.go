package pipeline

// Stage identifies one pipeline stage. Stages run in strict forward
// order with no cycles and no skipping.
type Stage string

const (
	StageClone      Stage = "A"
	StageInventory  Stage = "B"
	StageExtraction Stage = "C"
	StageTrace      Stage = "D"
	StageBeans      Stage = "E"
	StageGates      Stage = "F"
)

// StageSequence is the canonical A-F sequence.
var StageSequence = []Stage{
	StageClone,
	StageInventory,
	StageExtraction,
	StageTrace,
	StageBeans,
	StageGates,
}

var stageLabels = map[Stage]string{
	StageClone:      "Clone & Normalize",
	StageInventory:  "Inventory & Detection",
	StageExtraction: "Surface Extraction",
	StageTrace:      "Traceability",
	StageBeans:      "Bean Generation",
	StageGates:      "Coverage Gates",
}

// Label returns the human-readable stage name.
func (s Stage) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}

// EventSink receives ordered progress events from the orchestrator. The
// orchestrator treats every call as fire-and-forget and makes no
// assumption about the consumer's threading model; implementations that
// marshal events elsewhere must not block the caller.
type EventSink interface {
	StageStart(stage Stage)
	Progress(stage Stage, message string)
	StageComplete(stage Stage, message string)
	StageError(stage Stage, message string)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) StageStart(Stage)            {}
func (NopSink) Progress(Stage, string)      {}
func (NopSink) StageComplete(Stage, string) {}
func (NopSink) StageError(Stage, string)    {}
