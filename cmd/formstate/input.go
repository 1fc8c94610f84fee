package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// readInput decodes the file named by args[0], or stdin when no file is
// given. YAML is a superset of JSON so one decoder serves both.
func readInput(cmd *cobra.Command, args []string) (any, error) {
	raw, source, err := readRaw(cmd, args)
	if err != nil {
		return nil, err
	}
	var out any
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	return out, nil
}

// decodeInto converts a decoded document into dest through its json tags so
// field names match the HTTP payloads.
func decodeInto(value any, dest any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(encoded, dest); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func readRaw(cmd *cobra.Command, args []string) ([]byte, string, error) {
	if len(args) > 0 && args[0] != "-" {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("read input: %w", err)
		}
		return raw, args[0], nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, "", fmt.Errorf("read stdin: %w", err)
	}
	return raw, "stdin", nil
}

// issueList accepts either a bare list of issues or an object wrapping the
// list under "issues", the shape validation error responses usually take.
func issueList(doc any) any {
	if obj, ok := doc.(map[string]any); ok {
		if issues, ok := obj["issues"]; ok {
			return issues
		}
	}
	return doc
}
