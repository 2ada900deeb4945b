// Package analysis runs the reporting queries over the loaded tables and
// renders them as a plain-text report.
//
// The SQL sticks to what Postgres and SQLite both accept. The region
// distribution needs PERCENTILE_CONT, which SQLite lacks, so it is computed
// from the per-region counts instead.
package analysis

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"olympics/internal/storage"
)

// Querier is the read side of storage.Repository.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (*storage.Result, error)
}

// Section is one titled result table.
type Section struct {
	Title   string
	Columns []string
	Rows    [][]any
}

// Report is the ordered list of sections.
type Report struct {
	Sections []Section
}

const regionCounts = `
SELECT
    regions."REGION"
    , COUNT(athletes."ATHLETEID") AS count_athletes
FROM athletes
LEFT JOIN regions ON regions."NOC" = athletes."NOC"
GROUP BY regions."REGION"
`

// Query is a titled SQL statement.
type Query struct {
	Title string
	SQL   string
}

// The reporting queries, in report order.
var (
	TopRegions = Query{
		Title: "Top 10 regions by count of athletes:",
		SQL:   regionCounts + `ORDER BY count_athletes DESC, regions."REGION" LIMIT 10`,
	}
	BottomRegions = Query{
		Title: "Bottom 10 regions by count of athletes:",
		SQL:   regionCounts + `ORDER BY count_athletes ASC, regions."REGION" LIMIT 10`,
	}
	SexDistribution = Query{
		Title: "Distribution of sex by count of athletes:",
		SQL: `
SELECT
    athletes."SEX"
    , COUNT(athletes."ATHLETEID") AS count_athletes
FROM athletes
GROUP BY athletes."SEX"
ORDER BY count_athletes DESC, athletes."SEX"
`,
	}
	TopTeamPerDecade = Query{
		Title: "Team with the most medals per decade:",
		SQL: `
WITH team_medals AS (
    SELECT
        athletes."TEAM"
        , (event_results."YEAR" / 10) * 10 AS "DECADE"
        , event_results."EVENTRESULTID"
    FROM event_results
    LEFT JOIN athletes ON event_results."ATHLETEID" = athletes."ATHLETEID"
    WHERE event_results."MEDAL" IS NOT NULL
)
, medal_placings AS (
    SELECT
        "TEAM"
        , "DECADE"
        , DENSE_RANK() OVER (
            PARTITION BY "DECADE"
            ORDER BY COUNT("EVENTRESULTID") DESC
        ) AS "DECADE_PLACE"
    FROM team_medals
    GROUP BY "TEAM", "DECADE"
)
SELECT "TEAM", "DECADE", "DECADE_PLACE" FROM medal_placings
WHERE "DECADE_PLACE" = 1
ORDER BY "DECADE" DESC, "TEAM"
`,
	}
	TopHostCities = Query{
		Title: "Top 3 cities to host Olympics again:",
		SQL: `
SELECT "CITY", COUNT(*) AS olympics_count
FROM (SELECT DISTINCT "CITY", "YEAR", "SEASON" FROM event_results) AS games
GROUP BY "CITY"
ORDER BY olympics_count DESC, "CITY"
LIMIT 3
`,
	}
)

const distributionTitle = "Distribution of regions by count of athletes:"

var distributionColumns = []string{
	"mean_athlete_count", "min_athlete_count", "p25_athlete_count",
	"median_athlete_count", "p75_athlete_count", "max_athlete_count",
}

// Run executes every report query against q.
func Run(ctx context.Context, q Querier) (*Report, error) {
	rep := &Report{}
	add := func(query Query) error {
		res, err := q.Query(ctx, query.SQL)
		if err != nil {
			return fmt.Errorf("analysis: %s %w", query.Title, err)
		}
		rep.Sections = append(rep.Sections, Section{Title: query.Title, Columns: res.Columns, Rows: res.Rows})
		return nil
	}

	if err := add(TopRegions); err != nil {
		return nil, err
	}
	if err := add(BottomRegions); err != nil {
		return nil, err
	}

	res, err := q.Query(ctx, regionCounts)
	if err != nil {
		return nil, fmt.Errorf("analysis: region counts: %w", err)
	}
	counts := make([]int64, 0, len(res.Rows))
	for _, row := range res.Rows {
		n, err := toInt64(row[len(row)-1])
		if err != nil {
			return nil, fmt.Errorf("analysis: region counts: %w", err)
		}
		counts = append(counts, n)
	}
	rep.Sections = append(rep.Sections, Section{
		Title:   distributionTitle,
		Columns: distributionColumns,
		Rows:    [][]any{Distribution(counts).Row()},
	})

	for _, query := range []Query{SexDistribution, TopTeamPerDecade, TopHostCities} {
		if err := add(query); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

// Stats summarizes a distribution of counts. Every figure except Min and
// Max is rounded up.
type Stats struct {
	Empty                  bool
	Mean, Min, P25, Median int64
	P75, Max               int64
}

// Row renders s in distributionColumns order; an empty distribution is all
// NULL.
func (s Stats) Row() []any {
	if s.Empty {
		return []any{nil, nil, nil, nil, nil, nil}
	}
	return []any{s.Mean, s.Min, s.P25, s.Median, s.P75, s.Max}
}

// Distribution computes Stats with continuous percentiles (linear
// interpolation between closest ranks).
func Distribution(counts []int64) Stats {
	if len(counts) == 0 {
		return Stats{Empty: true}
	}
	v := append([]int64(nil), counts...)
	sort.Slice(v, func(i, j int) bool { return v[i] < v[j] })

	var sum int64
	for _, n := range v {
		sum += n
	}
	return Stats{
		Mean:   int64(math.Ceil(float64(sum) / float64(len(v)))),
		Min:    v[0],
		P25:    percentile(v, 0.25),
		Median: percentile(v, 0.5),
		P75:    percentile(v, 0.75),
		Max:    v[len(v)-1],
	}
}

func percentile(sorted []int64, p float64) int64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	val := float64(sorted[lo]) + frac*float64(sorted[hi]-sorted[lo])
	return int64(math.Ceil(val))
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("unexpected count type %T", v)
}

// WriteText renders the report as aligned plain-text tables.
func (r *Report) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, s := range r.Sections {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintln(tw, s.Title)
		writeCells(tw, s.Columns)
		for _, row := range s.Rows {
			cells := make([]string, len(row))
			for j, v := range row {
				cells[j] = cell(v)
			}
			writeCells(tw, cells)
		}
		if len(s.Rows) == 0 {
			fmt.Fprintln(tw, "  (no rows)")
		}
	}
	return tw.Flush()
}

func writeCells(w io.Writer, cells []string) {
	fmt.Fprint(w, "  ")
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}

func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	}
	return fmt.Sprint(v)
}
