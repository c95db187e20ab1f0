package runpack

import "time"

// EngineInput is engine_input.json, the file that tells the engine which
// files in the unpacked run pack to reconcile and how.
type EngineInput struct {
	InputFiles        []string          `json:"input_files"`
	InputFormat       string            `json:"input_format"`
	MappingConfigPath *string           `json:"mapping_config_path"`
	RulesetPath       string            `json:"ruleset_path"`
	RoundingMode      string            `json:"rounding_mode"`
	Timezone          string            `json:"timezone"`
	OutputDir         string            `json:"output_dir"`
	Mode              string            `json:"mode"`
	Determinism       DeterminismConfig `json:"determinism"`
}

type DeterminismConfig struct {
	SortKeys []string `json:"sort_keys"`
	Rounding string   `json:"rounding"`
	Timezone string   `json:"timezone"`
}

// Ruleset is ruleset.json.
type Ruleset struct {
	SchemaVersion  string   `json:"schema_version" yaml:"schema_version"`
	Sources        []string `json:"sources" yaml:"sources"`
	KeyFields      []string `json:"key_fields" yaml:"key_fields"`
	AmountField    string   `json:"amount_field" yaml:"amount_field"`
	CurrencyField  string   `json:"currency_field" yaml:"currency_field"`
	TimestampField string   `json:"timestamp_field" yaml:"timestamp_field"`
	AccountField   string   `json:"account_field" yaml:"account_field"`
}

// MappingConfig is mapping.json: per source, which input column holds
// each canonical field.
type MappingConfig struct {
	Sources map[string]FieldMapping `json:"sources" yaml:"sources"`
}

type FieldMapping struct {
	ID        string `json:"id" yaml:"id"`
	Amount    string `json:"amount" yaml:"amount"`
	Currency  string `json:"currency" yaml:"currency"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
	Account   string `json:"account" yaml:"account"`
}

type NormalizationSummary struct {
	RecordsProcessed int      `json:"records_processed"`
	RecordsSkipped   int      `json:"records_skipped"`
	Warnings         []string `json:"warnings"`
}

type VarianceSummary struct {
	Total        int            `json:"total"`
	CountsByType map[string]int `json:"counts_by_type"`
}

// EvidenceManifest lists every file the engine wrote to the evidence
// bundle with its size and SHA-256.
type EvidenceManifest struct {
	GeneratedAt   time.Time      `json:"generated_at"`
	ToolVersion   string         `json:"tool_version"`
	SchemaVersion string         `json:"schema_version"`
	Files         []ManifestFile `json:"files"`
}

type ManifestFile struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"` // lowercase hex
	Bytes  int64  `json:"bytes"`
}

// EngineOutput is engine_output.json, written by the engine next to the
// evidence bundle.
type EngineOutput struct {
	SchemaVersion          string               `json:"schema_version"`
	ToolVersion            string               `json:"tool_version"`
	NormalizationSummary   NormalizationSummary `json:"normalization_summary"`
	VarianceSummary        VarianceSummary      `json:"variance_summary"`
	VarianceItemsPath      string               `json:"variance_items_path"`
	EvidenceManifest       EvidenceManifest     `json:"evidence_manifest"`
	DeterministicStatement string               `json:"deterministic_statement"`
}

// VarianceItem is one line of evidence/variances.jsonl.
type VarianceItem struct {
	Key             string         `json:"key"`
	Type            string         `json:"type"`
	Currency        string         `json:"currency"`
	AmountsBySource []SourceAmount `json:"amounts_by_source,omitempty"`
	MissingSources  []string       `json:"missing_sources,omitempty"`
}

type SourceAmount struct {
	Source      string `json:"source"`
	AmountCents int64  `json:"amount_cents"`
}
