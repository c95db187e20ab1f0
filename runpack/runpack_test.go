package runpack

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/settler/archiver"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testInputs = []Input{
	{Name: "bank.csv", Data: []byte("transaction_id,amount,currency\nt1,10.00,USD\n")},
	{Name: "ledger.json", Data: []byte(`[{"transaction_id":"t1","amount":"10.00"}]`)},
}

func entryNames(entries []archiver.WriteEntry) []string {
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	return names
}

func findEntry(t *testing.T, entries []archiver.WriteEntry, name string) []byte {
	t.Helper()
	for _, e := range entries {
		if e.Name == name {
			return e.Data
		}
	}
	t.Fatalf("no entry %s", name)
	return nil
}

func TestEntriesOrder(t *testing.T) {
	entries, err := Entries(testInputs, nil)
	require.NoError(t, err)

	want := []string{
		"inputs/bank.csv",
		"inputs/ledger.json",
		"ruleset.json",
		"mapping.json",
		"engine_input.json",
		"README.txt",
	}
	if diff := cmp.Diff(want, entryNames(entries)); diff != "" {
		t.Errorf("entry names (-want +got):\n%s", diff)
	}
	assert.Equal(t, testInputs[0].Data, entries[0].Data)
	assert.Equal(t, testInputs[1].Data, entries[1].Data)
	assert.Equal(t, Readme, string(entries[5].Data))
}

func TestEntriesWithoutMapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncludeMapping = false
	entries, err := Entries(testInputs[:1], cfg)
	require.NoError(t, err)

	want := []string{"inputs/bank.csv", "ruleset.json", "engine_input.json", "README.txt"}
	if diff := cmp.Diff(want, entryNames(entries)); diff != "" {
		t.Errorf("entry names (-want +got):\n%s", diff)
	}

	engineInput := findEntry(t, entries, EngineInputPath)
	assert.Contains(t, string(engineInput), `"mapping_config_path": null`)
}

func TestEngineInput(t *testing.T) {
	entries, err := Entries(testInputs, nil)
	require.NoError(t, err)
	data := findEntry(t, entries, EngineInputPath)

	assert.True(t, strings.HasPrefix(string(data), "{\n  \"input_files\": [\n    \"inputs/bank.csv\","),
		"engine input is indented by two spaces:\n%s", data)

	var got EngineInput
	require.NoError(t, json.Unmarshal(data, &got))
	mappingPath := MappingPath
	want := EngineInput{
		InputFiles:        []string{"inputs/bank.csv", "inputs/ledger.json"},
		InputFormat:       "auto",
		MappingConfigPath: &mappingPath,
		RulesetPath:       "ruleset.json",
		RoundingMode:      "bankers",
		Timezone:          "UTC",
		OutputDir:         "output",
		Mode:              "local",
		Determinism: DeterminismConfig{
			SortKeys: []string{"key", "source"},
			Rounding: "bankers",
			Timezone: "UTC",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("engine input (-want +got):\n%s", diff)
	}
}

func TestEngineInputFollowsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RoundingMode = "half_up"
	cfg.Mode = "ci"
	cfg.OutputDir = "out/run-1"
	entries, err := Entries(testInputs[:1], cfg)
	require.NoError(t, err)

	var got EngineInput
	require.NoError(t, json.Unmarshal(findEntry(t, entries, EngineInputPath), &got))
	assert.Equal(t, "half_up", got.RoundingMode)
	assert.Equal(t, "half_up", got.Determinism.Rounding)
	assert.Equal(t, "ci", got.Mode)
	assert.Equal(t, "out/run-1", got.OutputDir)
}

func TestDefaultMappingDocument(t *testing.T) {
	entries, err := Entries(testInputs, nil)
	require.NoError(t, err)

	want := `{
  "sources": {
    "source_a": {
      "id": "transaction_id",
      "amount": "amount",
      "currency": "currency",
      "timestamp": "timestamp",
      "account": "account"
    },
    "source_b": {
      "id": "transaction_id",
      "amount": "amount",
      "currency": "currency",
      "timestamp": "timestamp",
      "account": "account"
    }
  }
}
`
	assert.Equal(t, want, string(findEntry(t, entries, MappingPath)))

	var ruleset Ruleset
	require.NoError(t, json.Unmarshal(findEntry(t, entries, RulesetPath), &ruleset))
	if diff := cmp.Diff(DefaultRuleset(), ruleset); diff != "" {
		t.Errorf("ruleset (-want +got):\n%s", diff)
	}
}

func TestEntriesNoInputs(t *testing.T) {
	_, err := Entries(nil, nil)
	require.ErrorIs(t, err, ErrNoInputs)

	_, err = Create(context.Background(), archiver.Zip{}, []Input{}, nil)
	require.ErrorIs(t, err, ErrNoInputs)
}

func TestCreate(t *testing.T) {
	archive, err := Create(context.Background(), archiver.Zip{Concurrency: 2}, testInputs, nil)
	require.NoError(t, err)

	headers, err := archiver.Zip{}.List(archive)
	require.NoError(t, err)
	require.Len(t, headers, 6)
	for _, h := range headers {
		assert.Equal(t, archiver.MethodStore, h.Method, h.Name)
	}

	readme, err := archiver.ExtractZipEntry(archive, ReadmePath)
	require.NoError(t, err)
	assert.Equal(t, Readme, string(readme))

	bank, err := archiver.Zip{VerifyChecksum: true}.ExtractEntry(archive, "inputs/bank.csv")
	require.NoError(t, err)
	assert.Equal(t, testInputs[0].Data, bank)
}

func TestCreateIsDeterministic(t *testing.T) {
	first, err := Create(context.Background(), archiver.Zip{}, testInputs, nil)
	require.NoError(t, err)
	second, err := Create(context.Background(), archiver.Zip{Concurrency: 1}, testInputs, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
