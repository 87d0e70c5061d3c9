package csvexport

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollcall/internal/engine"
	"github.com/roach88/rollcall/internal/entity"
	"github.com/roach88/rollcall/internal/record"
	"github.com/roach88/rollcall/internal/testutil"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func testEngine() *engine.Engine {
	return engine.New(
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func TestWriter_GoalsExportGolden(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	store := testutil.SchoolStore(t)

	res := testEngine().Export(store, entity.Goals, []string{"g1", "g2", "g3"}, "goals.csv", w)
	require.True(t, res.Success)

	data, err := os.ReadFile(filepath.Join(dir, "goals.csv"))
	require.NoError(t, err)
	newGoldie(t).Assert(t, "goals_export", data)
}

func TestWriter_FallbackExportGolden(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, nil)
	store := testutil.MustStore(t, map[entity.Type][]record.Object{
		entity.BehaviorLogs: {{
			"id":      record.String("b1"),
			"minutes": record.Int(5),
			"note":    record.String("late, again"),
		}},
	})

	res := testEngine().Export(store, entity.BehaviorLogs, []string{"b1"}, "behavior.csv", w)
	require.True(t, res.Success)

	data, err := os.ReadFile(filepath.Join(dir, "behavior.csv"))
	require.NoError(t, err)
	newGoldie(t).Assert(t, "behavior_export", data)
}

func TestWriter_CreatesDirAndReplaces(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := New(dir, nil)

	require.NoError(t, w.WriteRows("a.csv", [][]string{{"x"}, {"1"}}))
	require.NoError(t, w.WriteRows("a.csv", [][]string{{"x"}, {"2"}}))

	data, err := os.ReadFile(w.Path("a.csv"))
	require.NoError(t, err)
	assert.Equal(t, "x\n2\n", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriter_RejectsPaths(t *testing.T) {
	w := New(t.TempDir(), nil)

	for _, name := range []string{"", "..", "../escape.csv", "sub/file.csv"} {
		err := w.WriteRows(name, [][]string{{"x"}})
		assert.ErrorIs(t, err, ErrInvalidFilename, "name %q", name)
	}
}

func TestEncode_Quoting(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, [][]string{
		{"id", "notes"},
		{"l1", `said "hi"`},
		{"l2", "two\nlines"},
	})

	require.NoError(t, err)
	assert.Equal(t, "id,notes\nl1,\"said \"\"hi\"\"\"\nl2,\"two\nlines\"\n", buf.String())
}
