package server

// Wire shapes for the fixed handlers. Field names and literals are part of
// the protocol; callers on the orchestrator side match on them exactly.

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeResult struct {
	ProtocolVersion string     `json:"protocolVersion"`
	Capabilities    struct{}   `json:"capabilities"`
	ServerInfo      serverInfo `json:"serverInfo"`
}

type schemaProperty struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type toolSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]schemaProperty `json:"properties"`
	Required   []string                  `json:"required"`
}

type toolDescriptor struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Schema      toolSchema `json:"schema"`
}

type toolsListResult struct {
	Tools []toolDescriptor `json:"tools"`
}

func executeDescriptor() toolDescriptor {
	return toolDescriptor{
		Name:        toolExecute,
		Description: "Execute Python code",
		Schema: toolSchema{
			Type: "object",
			Properties: map[string]schemaProperty{
				"code": {Type: "string", Description: "The Python code to execute"},
			},
			Required: []string{"code"},
		},
	}
}
