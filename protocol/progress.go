package protocol

import "encoding/json"

// ProgressParams is the envelope of $/progress; Value decodes further into
// one of WorkDoneProgressBegin/Report/End based on its "kind" field.
type ProgressParams struct {
	Token IntegerOrString `json:"token"`
	Value json.RawMessage `json:"value"`
}

// WorkDoneProgressKind discriminates the ProgressParams.Value payload.
type WorkDoneProgressKind string

const (
	ProgressBegin  WorkDoneProgressKind = "begin"
	ProgressReport WorkDoneProgressKind = "report"
	ProgressEnd    WorkDoneProgressKind = "end"
)

// WorkDoneProgressBegin starts a progress session (spec.md §4.F).
type WorkDoneProgressBegin struct {
	Kind        WorkDoneProgressKind `json:"kind"`
	Title       string               `json:"title"`
	Cancellable bool                 `json:"cancellable,omitempty"`
	Message     string               `json:"message,omitempty"`
	Percentage  *uint32              `json:"percentage,omitempty"`
}

// WorkDoneProgressReport updates a progress session.
type WorkDoneProgressReport struct {
	Kind        WorkDoneProgressKind `json:"kind"`
	Cancellable bool                 `json:"cancellable,omitempty"`
	Message     string               `json:"message,omitempty"`
	Percentage  *uint32              `json:"percentage,omitempty"`
}

// WorkDoneProgressEnd closes a progress session.
type WorkDoneProgressEnd struct {
	Kind    WorkDoneProgressKind `json:"kind"`
	Message string                `json:"message,omitempty"`
}

// ProgressKind reads the discriminator out of a raw progress value without
// fully decoding it, so the dispatcher can pick the right struct.
func ProgressKind(value json.RawMessage) (WorkDoneProgressKind, error) {
	var probe struct {
		Kind WorkDoneProgressKind `json:"kind"`
	}
	if err := json.Unmarshal(value, &probe); err != nil {
		return "", err
	}
	return probe.Kind, nil
}
