package models

// Payload describes the work a task carries. Each task kind has its own
// concrete payload type so workers never dig through untyped maps.
type Payload interface {
	// Kind returns the task kind this payload describes.
	Kind() string
}

// Payload kind names. These double as the capability vocabulary used by
// the built-in agents.
const (
	KindCodeGen = "code_generation"
	KindDebug   = "debugging"
	KindFileOp  = "file_management"
	KindRaw     = "raw"
)

// CodeGenPayload asks a worker to generate code from a description.
type CodeGenPayload struct {
	// Description is the natural-language description of the code to write.
	Description string `json:"description" yaml:"description"`
	// Language is the target language (defaults to the worker's choice).
	Language string `json:"language,omitempty" yaml:"language,omitempty"`
	// Context is optional surrounding code or constraints.
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
}

// Kind implements Payload.
func (CodeGenPayload) Kind() string { return KindCodeGen }

// DebugPayload asks a worker to analyze code for defects.
type DebugPayload struct {
	// Code is the source to analyze.
	Code string `json:"code" yaml:"code"`
	// ErrorKind narrows the analysis (e.g. "syntax", "logic"). Empty means general.
	ErrorKind string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
}

// Kind implements Payload.
func (DebugPayload) Kind() string { return KindDebug }

// FileOpPayload asks a worker to perform a local file operation.
type FileOpPayload struct {
	// Op is one of "read", "write", "list", or "delete".
	Op string `json:"op" yaml:"op"`
	// Path is the file or directory the operation targets.
	Path string `json:"path" yaml:"path"`
	// Content is the data to write for "write" operations.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// Kind implements Payload.
func (FileOpPayload) Kind() string { return KindFileOp }

// RawPayload carries free text for capabilities that take an arbitrary
// prompt, such as tasks typed into the interactive runner.
type RawPayload struct {
	// Text is the free-form task description.
	Text string `json:"text" yaml:"text"`
}

// Kind implements Payload.
func (RawPayload) Kind() string { return KindRaw }
