package config

type WorkflowNode struct {
	Module   string         `yaml:"module"`
	Operator string         `yaml:"operator"`
	Args     map[string]any `yaml:"args"`
}

type Workflow struct {
	Identifier     string `yaml:"name"`
	Description    string `yaml:"description"`
	CollectionName string `yaml:"collection"`

	Nodes []WorkflowNode `yaml:"nodes"`
}

type WorkflowConfig struct {
	Workflows map[string]Workflow `yaml:"workflows"`
}
