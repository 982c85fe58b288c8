package domain

// Request names one task to run with its explicit parameters, as parsed from
// the command line or received by a server.
type Request struct {
	Task   string         `json:"task"`
	Params map[string]any `json:"params,omitempty"`
}
