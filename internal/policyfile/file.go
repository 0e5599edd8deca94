package policyfile

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/walletgate/internal/model"
)

// File is the on-disk policy document.
type File struct {
	Policies []Spec `yaml:"policies"`
}

// Spec is one declarative policy.
type Spec struct {
	Name   string         `yaml:"name"`
	Method Methods        `yaml:"method,omitempty"`
	Target *model.Target  `yaml:"target,omitempty"`
	Rule   string         `yaml:"rule"`
	Params map[string]any `yaml:"params,omitempty"`
}

// Methods accepts either a single method name or a list.
type Methods []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Methods) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		if s != "" {
			*m = Methods{s}
		}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*m = list
		return nil
	default:
		return errors.Errorf("line %d: method must be a string or a list of strings", node.Line)
	}
}

// Decode parses a policy document.
func Decode(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse policy file")
	}
	return &f, nil
}

// Hash returns "sha256:<hex>" of raw file bytes.
func Hash(data []byte) string {
	h := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(h[:])
}

// ReadWithHash reads path and returns the decoded document and its hash.
func ReadWithHash(path string) (*File, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read policy file")
	}
	f, err := Decode(data)
	if err != nil {
		return nil, "", err
	}
	return f, Hash(data), nil
}
