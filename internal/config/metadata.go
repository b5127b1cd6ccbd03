// Package config loads the externally-authored YAML documents the judge
// core treats as immutable inputs: problem metadata and the language
// catalogue, plus the CLI-bound options struct they're loaded against.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Testcase is one (input, expected-output) pair. ID is assigned at load
// time by sequential index and is the stable key into the verdict document.
type Testcase struct {
	ID     int    `yaml:"-" json:"-"`
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
}

// Metadata describes a single judging invocation's limits and test cases.
type Metadata struct {
	ProblemName         string     `yaml:"problem_name"`
	TimeLimit           float64    `yaml:"time_limit"`
	MemoryLimit         int64      `yaml:"memory_limit"`
	CompileTimeLimit    float64    `yaml:"compile_time_limit"`
	CompileMemoryLimit  int64      `yaml:"compile_memory_limit"`
	CheckerTimeLimit    float64    `yaml:"checker_time_limit"`
	CheckerMemoryLimit  int64      `yaml:"checker_memory_limit"`
	Testcases           []Testcase `yaml:"testcases"`
}

// LoadMetadata reads and parses a metadata YAML file, assigning zero-based
// IDs to test cases in file order.
func LoadMetadata(path string) (Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("open metadata file: %w", err)
	}
	defer f.Close()

	var metadata Metadata
	if err := yaml.NewDecoder(f).Decode(&metadata); err != nil {
		return Metadata{}, fmt.Errorf("parse metadata file: %w", err)
	}

	for i := range metadata.Testcases {
		metadata.Testcases[i].ID = i
	}

	return metadata, nil
}
