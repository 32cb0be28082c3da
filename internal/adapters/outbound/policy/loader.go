// Package policy loads security policy documents from disk.
package policy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/netharden/netharden/internal/domain"
)

// FileSource loads policies from YAML or JSON files. An empty reference
// yields the built-in default policy.
type FileSource struct{}

var _ domain.PolicySource = FileSource{}

func NewFileSource() FileSource {
	return FileSource{}
}

func (FileSource) Load(ref string) (domain.Policy, error) {
	if ref == "" {
		return domain.DefaultPolicy(), nil
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("reading policy file: %w", err)
	}

	var p domain.Policy
	if strings.EqualFold(filepath.Ext(ref), ".json") {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parsing policy file %s: %w", ref, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parsing policy file %s: %w", ref, err)
		}
	}

	if len(p) == 0 {
		return nil, fmt.Errorf("policy file %s contains no sections", ref)
	}
	return p, nil
}
