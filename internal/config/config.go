package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"finqa/internal/executor"
	"finqa/internal/registry"
)

var (
	ErrNodeMissingChildren = errors.New("workflow must contain at least one node")
	ErrInvalidExecutor     = errors.New("invalid executor")
)

// Config is the application configuration shared by the server, the
// worker and the indexer CLI.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Worker      WorkerConfig      `yaml:"worker"`
	Transport   TransportConfig   `yaml:"transport"`
	VectorStore VectorStoreConfig `yaml:"vector_store"`
	Indexer     IndexerConfig     `yaml:"indexer"`

	// WorkflowsPath points at the workflow definitions file.
	WorkflowsPath string `yaml:"workflows"`
}

type ServerConfig struct {
	ListenHost string `yaml:"listen_host"`
	ListenPort int    `yaml:"listen_port"`
}

type WorkerConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type TransportConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
}

func (c TransportConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type VectorStoreConfig struct {
	Type string `yaml:"type"`
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type IndexerConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	ChunkOverlap int `yaml:"chunk_overlap"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			ListenHost: "0.0.0.0",
			ListenPort: 8000,
		},
		Worker: WorkerConfig{
			Concurrency: 10,
		},
		Transport: TransportConfig{
			Type: "redis",
			Host: "localhost",
			Port: 6379,
		},
		VectorStore: VectorStoreConfig{
			Type: "qdrant",
			Host: "localhost",
			Port: 6334,
		},
		Indexer: IndexerConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
		},
		WorkflowsPath: "workflows.yaml",
	}
}

// Load reads the application config at path, filling any omitted fields
// with defaults. A missing file yields the defaults unchanged.
func Load(path string) (Config, error) {
	conf := Default()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return conf, nil
		}
		return conf, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(file, &conf); err != nil {
		return conf, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	return conf, nil
}

func ReadWorkflowConfig(path string) (WorkflowConfig, error) {
	var wc WorkflowConfig

	file, err := os.ReadFile(path)
	if err != nil {
		return wc, fmt.Errorf("failed to read workflows file %q: %w", path, err)
	}

	if err := yaml.Unmarshal(file, &wc); err != nil {
		return wc, fmt.Errorf("failed to parse workflows file %q: %w", path, err)
	}

	return wc, nil
}

func ParseWorkflows(conf WorkflowConfig) (map[string]*executor.Workflow, error) {
	workflows := make(map[string]*executor.Workflow)

	for _, cw := range conf.Workflows {
		nodes, err := parseWorkflowNodes(cw.Nodes)
		if err != nil {
			return nil, fmt.Errorf("failed to parse node on '%s' workflow (%v)", cw.Identifier, err)
		}

		collectionName := cw.CollectionName
		if collectionName == "" {
			collectionName = "default"
		}

		workflow := executor.NewWorkflow(
			cw.Identifier,
			cw.Description,
			collectionName,
			nodes,
		)

		workflows[cw.Identifier] = workflow
	}

	return workflows, nil
}

func parseWorkflowNodes(nodes []WorkflowNode) ([]executor.WorkflowNode, error) {
	if len(nodes) == 0 {
		return nil, ErrNodeMissingChildren
	}

	execNodes := make([]executor.WorkflowNode, 0, len(nodes))
	for _, cnode := range nodes {
		exec, err := registry.GetExecutor(cnode.Module)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidExecutor, err)
		}

		wfNode := executor.NewWorkflowNode(exec, cnode.Operator, cnode.Args)
		execNodes = append(execNodes, wfNode)
	}

	return execNodes, nil
}
