package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/picklr-io/stackctl/internal/ir"
)

const statusMarker = "deployed"

// StatusPathFor derives the status file path from a config path by inserting
// "deployed" before the final extension: stack.json -> stack.deployed.json.
// A path without an extension gets ".deployed" appended.
func StatusPathFor(configPath string) string {
	dir, file := filepath.Split(configPath)
	idx := strings.LastIndex(file, ".")
	if idx <= 0 {
		return configPath + "." + statusMarker
	}
	return dir + file[:idx] + "." + statusMarker + file[idx:]
}

// Marshal renders a status document in its canonical form: two-space indent,
// object keys sorted at every level, trailing newline. Marshalling the same
// document twice yields identical bytes.
func Marshal(st *ir.StackStatus) ([]byte, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}

	// Struct fields encode in declaration order; a generic tree encodes map
	// keys sorted.
	var tree any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("failed to normalize status: %w", err)
	}

	out, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode status: %w", err)
	}
	return append(out, '\n'), nil
}

// Unmarshal parses a status document. Numbers inside free-form maps are kept
// as json.Number so they are written back unchanged.
func Unmarshal(data []byte) (*ir.StackStatus, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var st ir.StackStatus
	if err := dec.Decode(&st); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &st, nil
}
