package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devadigapratham/spoolkeeper/api/models"
	"github.com/devadigapratham/spoolkeeper/config"
	"github.com/devadigapratham/spoolkeeper/transfer"
)

type cliHarness struct {
	dataDir string
	backend string
}

func newHarness(t *testing.T, backend string) *cliHarness {
	t.Helper()
	color.NoColor = true
	return &cliHarness{dataDir: t.TempDir(), backend: backend}
}

func (h *cliHarness) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd(Env{In: strings.NewReader(stdin), Out: &out, Err: &errOut})
	cmd.SetArgs(append([]string{"--data-dir", h.dataDir, "--backend", h.backend, "--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (h *cliHarness) records(t *testing.T) []models.Filament {
	t.Helper()

	out, err := h.run(t, "", "export", "--out", "-")
	require.NoError(t, err)
	records, err := transfer.Parse(strings.NewReader(out))
	require.NoError(t, err)
	return records
}

func (h *cliHarness) addSample(t *testing.T, brand, colorName string) {
	t.Helper()

	_, err := h.run(t, "", "add", "--brand", brand, "--type", "pla", "--color", colorName, "--hex", "#1a1a1a")
	require.NoError(t, err)
}

func TestAdd_AppliesFormDefaults(t *testing.T) {
	h := newHarness(t, "file")

	out, err := h.run(t, "", "add", "--brand", "Prusament", "--type", "petg", "--color", "Galaxy Black",
		"--hex", "#1a1a1a", "--total", "750", "--tag", "glossy", "--tag", "glossy", "--country", "cz")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Prusament Galaxy Black")

	records := h.records(t)
	require.Len(t, records, 1)
	f := records[0]
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, "PETG", f.Type)
	assert.Equal(t, models.Grams(750), f.WeightTotal)
	assert.Equal(t, models.Grams(750), f.WeightRemaining)
	assert.Equal(t, models.DefaultDiameter, f.Diameter)
	assert.Equal(t, []string{"glossy"}, f.Tags)
	assert.Equal(t, "CZ", f.CountryOfOrigin)
	assert.Nil(t, f.BedTemp)
}

func TestAdd_EmptySpool(t *testing.T) {
	h := newHarness(t, "file")

	_, err := h.run(t, "", "add", "--brand", "Elegoo", "--type", "PLA", "--color", "Red", "--hex", "#ff0000", "--remaining", "0")
	require.NoError(t, err)

	records := h.records(t)
	require.Len(t, records, 1)
	assert.Equal(t, models.Grams(1000), records[0].WeightTotal)
	assert.Equal(t, models.Grams(0), records[0].WeightRemaining)

	out, err := h.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total weight: 0.0 kg")
}

func TestAdd_RejectsInvalidInput(t *testing.T) {
	h := newHarness(t, "file")

	_, err := h.run(t, "", "add", "--brand", "Elegoo", "--type", "PLA", "--color", "Red", "--hex", "red")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colorHex")

	_, err = h.run(t, "", "add", "--brand", "Elegoo", "--type", "Wood", "--color", "Red", "--hex", "#ff0000")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type")

	assert.Empty(t, h.records(t))
}

func TestList_FiltersAndCounts(t *testing.T) {
	h := newHarness(t, "file")
	h.addSample(t, "Elegoo", "Red")
	h.addSample(t, "Prusament", "Blue")

	out, err := h.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Elegoo Red")
	assert.Contains(t, out, "Prusament Blue")
	assert.Contains(t, out, "100%")

	out, err = h.run(t, "", "list", "--brand", "Elegoo")
	require.NoError(t, err)
	assert.Contains(t, out, "Elegoo Red")
	assert.NotContains(t, out, "Prusament Blue")
	assert.Contains(t, out, "1 of 2 spools match")
}

func TestList_Empty(t *testing.T) {
	h := newHarness(t, "memory")

	out, err := h.run(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No spools.")
}

func TestUpdate_ByPrefixClampsRemaining(t *testing.T) {
	h := newHarness(t, "file")
	h.addSample(t, "Elegoo", "Red")
	id := h.records(t)[0].ID

	_, err := h.run(t, "", "update", id[:6], "--remaining", "250", "--notes", "half used")
	require.NoError(t, err)

	f := h.records(t)[0]
	assert.Equal(t, models.Grams(250), f.WeightRemaining)
	assert.Equal(t, "half used", f.Notes)
	assert.Equal(t, "Elegoo", f.Brand)

	_, err = h.run(t, "", "update", id, "--remaining", "5000")
	require.NoError(t, err)
	assert.Equal(t, models.Grams(1000), h.records(t)[0].WeightRemaining)
}

func TestUpdate_Errors(t *testing.T) {
	h := newHarness(t, "file")
	h.addSample(t, "Elegoo", "Red")
	id := h.records(t)[0].ID

	_, err := h.run(t, "", "update", id)
	assert.EqualError(t, err, "nothing to update")

	_, err = h.run(t, "", "update", "does-not-exist", "--notes", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no spool with id")

	_, err = h.run(t, "", "update", id, "--total", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weightTotal")
}

func TestShow(t *testing.T) {
	h := newHarness(t, "file")
	_, err := h.run(t, "", "add", "--brand", "Sunlu", "--type", "PLA", "--color", "White", "--hex", "#ffffff",
		"--nozzle-temp", "200-220", "--spool-weight", "180")
	require.NoError(t, err)
	id := h.records(t)[0].ID

	out, err := h.run(t, "", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Sunlu White")
	assert.Contains(t, out, "200-220°C")
	assert.Contains(t, out, "820g")
}

func TestDelete_AsksForConfirmation(t *testing.T) {
	h := newHarness(t, "file")
	h.addSample(t, "Elegoo", "Red")
	id := h.records(t)[0].ID

	out, err := h.run(t, "n\n", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Canceled.")
	assert.Len(t, h.records(t), 1)

	out, err = h.run(t, "y\n", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted Elegoo Red")
	assert.Empty(t, h.records(t))
}

func TestDelete_Yes(t *testing.T) {
	h := newHarness(t, "file")
	h.addSample(t, "Elegoo", "Red")

	_, err := h.run(t, "", "delete", "--yes", h.records(t)[0].ID)
	require.NoError(t, err)
	assert.Empty(t, h.records(t))
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := newHarness(t, "file")
	src.addSample(t, "Elegoo", "Red")
	src.addSample(t, "Prusament", "Blue")

	file := filepath.Join(t.TempDir(), "inventory.json")
	out, err := src.run(t, "", "export", "--out", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 spools")

	dst := newHarness(t, "bolt")
	dst.addSample(t, "Old", "Gray")

	out, err = dst.run(t, "n\n", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Import canceled")
	assert.Len(t, dst.records(t), 1)

	out, err = dst.run(t, "y\n", "import", file)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully imported 2 filaments!")
	assert.Equal(t, src.records(t), dst.records(t))
}

func TestImport_BadFormat(t *testing.T) {
	h := newHarness(t, "file")
	h.addSample(t, "Elegoo", "Red")

	file := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"not": "an array"}`), 0o644))

	_, err := h.run(t, "", "import", "--yes", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please check the file format")
	assert.Len(t, h.records(t), 1)
}

func TestStatsAndFacets(t *testing.T) {
	h := newHarness(t, "file")
	h.addSample(t, "Elegoo", "Red")
	h.addSample(t, "Prusament", "Red")

	out, err := h.run(t, "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Total rolls: 2")
	assert.Contains(t, out, "Total weight: 2.0 kg")

	out, err = h.run(t, "", "facets", "brands")
	require.NoError(t, err)
	assert.Contains(t, out, "Elegoo")
	assert.NotContains(t, out, "Colors")

	_, err = h.run(t, "", "facets", "vendors")
	assert.Error(t, err)
}

func TestTheme_Persists(t *testing.T) {
	h := newHarness(t, "file")

	out, err := h.run(t, "", "theme")
	require.NoError(t, err)
	assert.Equal(t, "dark\n", out)

	out, err = h.run(t, "", "theme", "toggle")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	out, err = h.run(t, "", "theme", "get")
	require.NoError(t, err)
	assert.Equal(t, "light\n", out)

	_, err = h.run(t, "", "theme", "set", "sepia")
	assert.Error(t, err)
}

func TestUnknownBackend(t *testing.T) {
	h := newHarness(t, "cloud")

	_, err := h.run(t, "", "list")
	assert.Error(t, err)
}

func TestRaftBackend_Journal(t *testing.T) {
	h := newHarness(t, "raft")
	h.addSample(t, "Elegoo", "Red")
	h.addSample(t, "Prusament", "Blue")

	records := h.records(t)
	require.Len(t, records, 2)
	assert.Equal(t, "Prusament", records[0].Brand)

	out, err := h.run(t, "", "journal", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Leader")
	assert.Contains(t, out, "last_log_index")

	out, err = h.run(t, "", "journal", "compact")
	require.NoError(t, err)
	assert.Contains(t, out, "Journal compacted.")
	assert.Len(t, h.records(t), 2)
}

func TestJournal_RequiresRaftBackend(t *testing.T) {
	h := newHarness(t, "file")

	_, err := h.run(t, "", "journal", "status")
	assert.ErrorIs(t, err, errNoJournal)
}

func TestServe_MetricsFlagAgreesWithConfig(t *testing.T) {
	for _, args := range [][]string{nil, {"--metrics=false"}, {"--metrics"}} {
		v := viper.New()
		cmd := newServeCmd(v, nil)
		require.NoError(t, cmd.ParseFlags(args))
		v.Set("data_dir", t.TempDir())

		cfg, err := config.Load(v, "")
		require.NoError(t, err)
		want, err := cmd.Flags().GetBool("metrics")
		require.NoError(t, err)
		assert.Equal(t, want, cfg.Metrics, "args %v", args)
	}

	v := viper.New()
	assert.Equal(t, "true", newServeCmd(v, nil).Flags().Lookup("metrics").DefValue)
}
