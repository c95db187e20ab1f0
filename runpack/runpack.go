// Package runpack builds engine run packs, the zip archives a user
// downloads to run reconciliation locally, and reads back the evidence
// bundles the engine produces.
package runpack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/settler/archiver"
)

// Names of the files inside a run pack.
const (
	InputsDir       = "inputs"
	RulesetPath     = "ruleset.json"
	MappingPath     = "mapping.json"
	EngineInputPath = "engine_input.json"
	ReadmePath      = "README.txt"

	// DefaultFilename is what a run pack is saved as.
	DefaultFilename = "settler-run-pack.zip"
)

// Readme is the README.txt placed in every run pack.
const Readme = "Settler Engine Run Pack\n\n" +
	"1) Unzip this run pack.\n" +
	"2) Run the engine locally:\n" +
	"   pnpm settler:run --input engine_input.json\n\n" +
	"The engine surfaces discrepancies deterministically and writes outputs to ./output."

// ErrNoInputs is returned when a run pack is requested without any
// input files.
var ErrNoInputs = errors.New("select at least one input file to create a run pack")

// Input is one user-supplied data file (CSV or JSON export).
type Input struct {
	Name string // file name, stored as inputs/<Name>
	Data []byte
}

// Entries returns the archive entries of a run pack, in order: every
// input, the ruleset, the mapping (if cfg includes it), the engine input
// and the README.
func Entries(inputs []Input, cfg *Config) ([]archiver.WriteEntry, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	entries := make([]archiver.WriteEntry, 0, len(inputs)+4)
	inputFiles := make([]string, 0, len(inputs))
	for _, in := range inputs {
		name := InputsDir + "/" + in.Name
		entries = append(entries, archiver.WriteEntry{Name: name, Data: in.Data})
		inputFiles = append(inputFiles, name)
	}

	ruleset, err := marshalIndent(cfg.Ruleset)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", RulesetPath, err)
	}
	entries = append(entries, archiver.WriteEntry{Name: RulesetPath, Data: ruleset})

	var mappingPath *string
	if cfg.IncludeMapping {
		mapping, err := marshalIndent(cfg.Mapping)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", MappingPath, err)
		}
		entries = append(entries, archiver.WriteEntry{Name: MappingPath, Data: mapping})
		p := MappingPath
		mappingPath = &p
	}

	engineInput, err := json.MarshalIndent(EngineInput{
		InputFiles:        inputFiles,
		InputFormat:       cfg.InputFormat,
		MappingConfigPath: mappingPath,
		RulesetPath:       RulesetPath,
		RoundingMode:      cfg.RoundingMode,
		Timezone:          cfg.Timezone,
		OutputDir:         cfg.OutputDir,
		Mode:              cfg.Mode,
		Determinism: DeterminismConfig{
			SortKeys: []string{"key", "source"},
			Rounding: cfg.RoundingMode,
			Timezone: cfg.Timezone,
		},
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", EngineInputPath, err)
	}
	entries = append(entries,
		archiver.WriteEntry{Name: EngineInputPath, Data: engineInput},
		archiver.WriteEntry{Name: ReadmePath, Data: []byte(Readme)},
	)

	return entries, nil
}

// Create returns a run pack for inputs as a zip archive written by z.
func Create(ctx context.Context, z archiver.Zip, inputs []Input, cfg *Config) ([]byte, error) {
	entries, err := Entries(inputs, cfg)
	if err != nil {
		return nil, err
	}
	return z.Create(ctx, entries)
}

// marshalIndent encodes v as 2-space indented JSON with a trailing newline.
func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
