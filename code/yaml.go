package code

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlSpec is the on-disk YAML shape of a custom code description.
type yamlSpec struct {
	Name     string     `yaml:"name"`
	Qubits   int        `yaml:"qubits"`
	Checks   [][]uint32 `yaml:"checks"`
	Logicals [][]uint32 `yaml:"logicals"`
}

// LoadYAML reads a custom code description from YAML.
//
// Expected shape:
//
//	name: my-code
//	qubits: 4
//	checks:
//	  - [0, 1]
//	  - [1, 2]
//	  - [2, 3]
//	logicals:
//	  - [0]
func LoadYAML(r io.Reader) (*Description, error) {
	var spec yamlSpec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decode code yaml: %w", err)
	}
	return New(spec.Name, spec.Qubits, spec.Checks, spec.Logicals)
}

// LoadYAMLFile reads a custom code description from a YAML file.
func LoadYAMLFile(path string) (*Description, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadYAML(f)
}
