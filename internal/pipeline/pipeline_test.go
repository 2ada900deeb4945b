package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"olympics/internal/config"
	"olympics/internal/datasource"
	csvparser "olympics/internal/parser/csv"
	"olympics/internal/reconcile"
	"olympics/internal/schema"
	"olympics/internal/storage"
	_ "olympics/internal/storage/sqlite"
)

const (
	regionsCSV = `,NOC,region,notes
0,USA,USA,NA
1,NOR,Norway,
`
	summerCSV = `,Name,Sex,Age,Team,NOC,Year,Season,City,Sport,Event,Medal
0,A,M,24,USA,USA,2000,Summer,Sydney,Swimming,100m,Gold
1,A,M,24,USA,USA,2000,Summer,Sydney,Swimming,100m,Gold
2,A,M,28,USA,USA,2004,Summer,Athina,Swimming,100m,NA
`
	winterCSV = `,Name,Sex,Age,Team,NOC,Year,Season,City,Sport,Event,Medal
0,B,F,30,Norway,NOR,1994,Winter,Lillehammer,Skiing,Downhill,Silver
`
)

// fakeLander writes a fixed set of extracts into dir.
type fakeLander struct {
	files map[string]string
	err   error
	after func()
	calls int
}

func (f *fakeLander) Land(ctx context.Context, bucket, subfolder, dir string) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var out []string
	for name, body := range f.files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if f.after != nil {
		f.after()
	}
	return out, nil
}

func newRepo(t *testing.T, provision bool) storage.Repository {
	t.Helper()
	ctx := context.Background()
	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	if provision {
		require.NoError(t, storage.Provision(ctx, "sqlite", repo, schema.All()))
	}
	return repo
}

func olympicsFiles() map[string]string {
	return map[string]string{
		"regions.csv":               regionsCSV,
		"athlete_events_summer.csv": summerCSV,
		"athlete_events_winter.csv": winterCSV,
	}
}

func newController(lander *fakeLander, repo storage.Repository) *Controller {
	return &Controller{
		Lander:        lander,
		Parser:        csvparser.NewParser(csvparser.ExtractOptions()),
		Repo:          repo,
		NormalizeText: true,
	}
}

func params(t *testing.T) Params {
	return Params{Bucket: "raw-csv-storage", Subfolder: "raw-olympics", LocalPath: filepath.Join(t.TempDir(), "raw")}
}

func count(t *testing.T, repo storage.Repository, table string) int64 {
	t.Helper()
	res, err := repo.Query(context.Background(), `SELECT count(*) FROM `+table)
	require.NoError(t, err)
	return res.Rows[0][0].(int64)
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, true)
	c := newController(&fakeLander{files: olympicsFiles()}, repo)

	sum, err := c.Run(context.Background(), params(t))
	require.NoError(t, err)
	require.Len(t, sum.Landed, 3)
	require.Equal(t, 2, sum.Reconcile.Regions)
	require.Equal(t, 2, sum.Reconcile.Athletes)
	require.Equal(t, 3, sum.Reconcile.EventResults)
	require.Len(t, sum.Loaded, 3)

	require.Equal(t, int64(2), count(t, repo, schema.TableRegions))
	require.Equal(t, int64(2), count(t, repo, schema.TableAthletes))
	require.Equal(t, int64(3), count(t, repo, schema.TableEventResults))

	res, err := repo.Query(context.Background(),
		`SELECT "ATHLETEID" FROM athletes WHERE "NAME" = 'A'`)
	require.NoError(t, err)
	require.Equal(t, reconcile.AthleteID("A", "M", "USA", "USA"), res.Rows[0][0])

	res, err = repo.Query(context.Background(), `SELECT "NOTES" FROM regions ORDER BY "NOC"`)
	require.NoError(t, err)
	require.Equal(t, [][]any{{nil}, {nil}}, res.Rows)
}

func TestRun_RerunIsIdempotent(t *testing.T) {
	t.Parallel()

	repo := newRepo(t, true)
	c := newController(&fakeLander{files: olympicsFiles()}, repo)
	p := params(t)

	_, err := c.Run(context.Background(), p)
	require.NoError(t, err)
	_, err = c.Run(context.Background(), p)
	require.NoError(t, err)

	require.Equal(t, int64(2), count(t, repo, schema.TableRegions))
	require.Equal(t, int64(2), count(t, repo, schema.TableAthletes))
	require.Equal(t, int64(3), count(t, repo, schema.TableEventResults))
}

func TestRun_MissingRegions(t *testing.T) {
	t.Parallel()

	files := olympicsFiles()
	delete(files, "regions.csv")
	repo := newRepo(t, true)

	_, err := newController(&fakeLander{files: files}, repo).Run(context.Background(), params(t))

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageReconcile, se.Stage)
	var mi *reconcile.MissingInputError
	require.ErrorAs(t, err, &mi)
	require.Equal(t, []string{reconcile.RegionsExtract}, mi.Keys)
	require.Zero(t, count(t, repo, schema.TableRegions))
}

func TestRun_ExtractFailure(t *testing.T) {
	t.Parallel()

	lander := &fakeLander{err: &datasource.NoFilesFoundError{Location: "s3://raw-csv-storage/raw-olympics/"}}
	_, err := newController(lander, newRepo(t, true)).Run(context.Background(), params(t))

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageExtract, se.Stage)
	require.Equal(t, "s3://raw-csv-storage/raw-olympics", se.Target)
	var nf *datasource.NoFilesFoundError
	require.ErrorAs(t, err, &nf)
}

func TestRun_MalformedRowFailsRead(t *testing.T) {
	t.Parallel()

	files := olympicsFiles()
	files["athlete_events_summer.csv"] = summerCSV + "3,B,F,22,USA\n"
	repo := newRepo(t, true)

	_, err := newController(&fakeLander{files: files}, repo).Run(context.Background(), params(t))

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageRead, se.Stage)
	var rowErr *csvparser.RowError
	require.ErrorAs(t, err, &rowErr)
	require.Equal(t, 5, rowErr.Line)
	require.ErrorContains(t, err, "athlete_events_summer")
	require.Zero(t, count(t, repo, schema.TableAthletes))
}

func TestRun_TableNotProvisioned(t *testing.T) {
	t.Parallel()

	_, err := newController(&fakeLander{files: olympicsFiles()}, newRepo(t, false)).Run(context.Background(), params(t))

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageLoad, se.Stage)
	require.Equal(t, schema.TableRegions, se.Target)
	var tnf *storage.TableNotFoundError
	require.ErrorAs(t, err, &tnf)
}

func TestRun_CanceledBetweenStages(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	repo := newRepo(t, true)
	lander := &fakeLander{files: olympicsFiles(), after: cancel}

	_, err := newController(lander, repo).Run(ctx, params(t))

	var se *StageError
	require.ErrorAs(t, err, &se)
	require.Equal(t, StageRead, se.Stage)
	require.True(t, errors.Is(err, context.Canceled))
	require.Zero(t, count(t, repo, schema.TableRegions))
}

func TestRun_MissingParams(t *testing.T) {
	t.Parallel()

	lander := &fakeLander{files: olympicsFiles()}
	_, err := newController(lander, newRepo(t, true)).Run(context.Background(), Params{Bucket: "b"})

	var ce *config.ConfigurationError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Issues, 2)
	require.Zero(t, lander.calls)
}

func TestStageError_Message(t *testing.T) {
	t.Parallel()

	err := &StageError{Stage: StageLoad, Target: "athletes", Err: errors.New("boom")}
	require.Equal(t, "pipeline: load athletes: boom", err.Error())
	require.Equal(t, "pipeline: reconcile: boom", (&StageError{Stage: StageReconcile, Err: errors.New("boom")}).Error())
}
