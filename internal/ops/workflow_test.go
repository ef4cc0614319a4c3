package ops

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moestate/newsdesk/internal/brief"
	"github.com/moestate/newsdesk/internal/catalog"
	"github.com/moestate/newsdesk/internal/db"
	"github.com/moestate/newsdesk/internal/digest"
	"github.com/moestate/newsdesk/internal/errors"
)

// TestFullWorkflow exercises the digest lifecycle against SQLite:
// generate → create → fetch → update → append → list → export → delete → import
func TestFullWorkflow(t *testing.T) {
	tmpDir := t.TempDir()
	database, err := db.Init(tmpDir)
	require.NoError(t, err)
	defer database.Close()

	ctx := context.Background()
	m := NewManager(db.NewSlotStore(database, ""), nil, nil, nil)
	gen := brief.NewGenerator(catalog.NewProvider(catalog.StaticSource{}, 0), nil, 0, nil, nil)

	// 1. Generate
	out, err := Generate(ctx, gen, brief.Request{
		PropertyType: digest.PropertyIndustrial,
		TimeSpan:     digest.TimeSpanWeekly,
	})
	require.NoError(t, err)
	require.Equal(t, "Weekly Market Report: Industrial Properties", out.Title)
	require.Len(t, out.Articles, 3)

	// 2. Create from the generated brief
	created, err := m.Create(ctx, out.Form())
	require.NoError(t, err)
	id := created.ID

	// 3. Fetch
	fetched, err := m.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, out.Content, fetched.Content)
	require.Equal(t, out.Articles, fetched.Articles)

	// 4. Update title
	updated, err := m.Update(ctx, id, digest.Patch{Title: stringPtr("Industrial Weekly")})
	require.NoError(t, err)
	require.Equal(t, "Industrial Weekly", updated.Title)
	require.Greater(t, updated.UpdatedAt, created.UpdatedAt)

	// 5. Append an analyst note to the summary
	appendOut, err := m.Append(ctx, AppendInput{ID: id, Section: "Market Summary", Content: "Analyst note: watch cold storage."})
	require.NoError(t, err)
	require.Equal(t, "## Market Summary", appendOut.SectionHit)

	fetched, err = m.Get(ctx, id)
	require.NoError(t, err)
	require.Contains(t, fetched.Content, "Analyst note: watch cold storage.")

	// 6. List
	listOut, err := m.List(ctx, ListInput{Search: "industrial"})
	require.NoError(t, err)
	require.Len(t, listOut.Items, 1)
	require.Equal(t, id, listOut.Items[0].ID)
	require.Equal(t, 3, listOut.Items[0].ArticleCount)

	// 7. Export to the exports directory
	exportsDir := filepath.Join(tmpDir, "exports")
	exportOut, err := m.ExportFile(ctx, ExportFileInput{ID: id, Dir: exportsDir})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(exportsDir, "digest-"+id+".txt"), exportOut.Path)

	// 8. Delete
	delOut, err := m.Remove(ctx, id)
	require.NoError(t, err)
	require.True(t, delOut.Deleted)

	gone, err := m.Get(ctx, id)
	require.NoError(t, err)
	require.Nil(t, gone)

	// 9. Import restores the exported digest with its original identity
	importOut, err := m.Import(ctx, ImportInput{Path: exportOut.Path, Dir: exportsDir})
	require.NoError(t, err)
	require.Equal(t, id, importOut.ID)
	require.False(t, importOut.Replaced)

	restored, err := m.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, restored)
	require.Equal(t, "Industrial Weekly", restored.Title)

	// 10. Importing again without replace collides
	_, err = m.Import(ctx, ImportInput{Path: exportOut.Path, Dir: exportsDir})
	require.True(t, errors.Is(err, errors.ErrAlreadyExists))
}

// TestWorkflow_PersistsAcrossReopen checks the slot survives closing the database.
func TestWorkflow_PersistsAcrossReopen(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()

	database, err := db.Init(tmpDir)
	require.NoError(t, err)
	m := NewManager(db.NewSlotStore(database, ""), nil, nil, nil)
	m.now = fixedClock(time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC))
	created, err := m.Create(ctx, validForm())
	require.NoError(t, err)
	require.NoError(t, database.Close())

	database, err = db.Init(tmpDir)
	require.NoError(t, err)
	defer database.Close()

	m = NewManager(db.NewSlotStore(database, ""), nil, nil, nil)
	got, err := m.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "2024-01-15T08:00:00.000Z", got.CreatedAt)
}
