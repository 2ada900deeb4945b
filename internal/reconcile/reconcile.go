// Package reconcile turns denormalized per-season athlete extracts plus the
// regions extract into the three entity sets loaded into the database.
//
// Column names are upper-cased on entry, so extracts may spell their headers
// in any case ("Name", "NAME"). Every output frame uses the destination
// column names from package schema.
package reconcile

import (
	"fmt"
	"sort"

	"olympics/internal/logger"
	"olympics/internal/records"
	"olympics/internal/schema"
	"olympics/internal/transformer/builtin"
)

// RegionsExtract is the input key of the regions extract. Every other key is
// treated as an athlete extract.
const RegionsExtract = "regions"

// athleteExtractLabel names the missing input when no athlete extract exists.
const athleteExtractLabel = "<athlete extract>"

// Input maps extract name to its parsed frame.
type Input map[string]records.Frame

// Entities is the reconciled output, one frame per destination table.
type Entities struct {
	Regions      records.Frame
	Athletes     records.Frame
	EventResults records.Frame
}

// For returns the entity frame destined for table t.
func (e *Entities) For(t schema.Table) (records.Frame, bool) {
	switch t.Name {
	case schema.TableRegions:
		return e.Regions, true
	case schema.TableAthletes:
		return e.Athletes, true
	case schema.TableEventResults:
		return e.EventResults, true
	}
	return records.Frame{}, false
}

// ExtractReport counts what happened to one input extract.
type ExtractReport struct {
	Rows       int
	Duplicates int
}

// Report summarizes a reconciliation.
type Report struct {
	Extracts map[string]ExtractReport

	Regions      int
	Athletes     int
	EventResults int

	// Unmatched counts combined rows whose (NAME, SEX, NOC) matched no
	// resolved athlete.
	Unmatched int
	// DuplicateResults counts joined result rows collapsed as exact duplicates.
	DuplicateResults int
}

// Options tunes Reconcile. The zero value is valid.
type Options struct {
	// NormalizeText applies builtin.Normalize (NFC, trim) to every string
	// value before comparison, so visually identical names collapse.
	NormalizeText bool

	Log *logger.Logger
}

var (
	athleteKey = []string{schema.ColName, schema.ColSex, schema.ColNOC, schema.ColTeam}
	joinKey    = []string{schema.ColName, schema.ColSex, schema.ColNOC}
	eventAttrs = []string{schema.ColYear, schema.ColSeason, schema.ColCity, schema.ColSport, schema.ColEvent, schema.ColMedal}

	athleteExtractColumns = append(append([]string(nil), athleteKey...), eventAttrs...)

	regionColumns   = []string{schema.ColNOC, schema.ColRegion, schema.ColNotes}
	athleteColumns  = []string{schema.ColAthleteID, schema.ColName, schema.ColSex, schema.ColNOC, schema.ColTeam}
	resultColumns   = append(append([]string{schema.ColEventResultID}, eventAttrs...), schema.ColAthleteID)
	requiredRegions = []string{schema.ColNOC, schema.ColRegion}
)

// Reconcile resolves athlete identities and event results from in. It never
// mutates in and returns no entities on error.
//
// Athlete rows fan out on the join: a row joins every resolved athlete that
// shares its (NAME, SEX, NOC), whatever the team.
func Reconcile(in Input, opts Options) (*Entities, Report, error) {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	rep := Report{Extracts: make(map[string]ExtractReport, len(in))}

	athleteNames, err := classify(in)
	if err != nil {
		return nil, Report{}, err
	}

	frames := make(map[string]records.Frame, len(in))
	for name, f := range in {
		nf, err := prepare(name, f, opts.NormalizeText)
		if err != nil {
			return nil, Report{}, err
		}
		if name == RegionsExtract {
			err = validateRegions(nf)
		} else {
			err = validateAthleteExtract(name, nf)
		}
		if err != nil {
			return nil, Report{}, err
		}
		rows, dups := builtin.DeDup{Keys: nf.Columns}.ApplyCount(nf.Rows)
		nf.Rows = rows
		frames[name] = nf
		rep.Extracts[name] = ExtractReport{Rows: f.Len(), Duplicates: dups}
	}

	regions := frames[RegionsExtract].Project(regionColumns...)

	var combined []records.Record
	for _, name := range athleteNames {
		combined = append(combined, frames[name].Rows...)
	}

	athletes := buildAthletes(combined)
	results, unmatched, dups := buildResults(combined, athletes)

	rep.Regions, rep.Athletes, rep.EventResults = regions.Len(), athletes.Len(), results.Len()
	rep.Unmatched, rep.DuplicateResults = unmatched, dups
	if unmatched > 0 {
		log.Warn("result rows matched no athlete", "unmatched", unmatched)
	}
	log.Debug("reconciled extracts",
		"regions", rep.Regions, "athletes", rep.Athletes, "event_results", rep.EventResults)

	return &Entities{Regions: regions, Athletes: athletes, EventResults: results}, rep, nil
}

// classify checks the required extracts and returns the athlete extract names
// in sorted order.
func classify(in Input) ([]string, error) {
	var missing []string
	if _, ok := in[RegionsExtract]; !ok {
		missing = append(missing, RegionsExtract)
	}
	var athletes []string
	for name := range in {
		if name != RegionsExtract {
			athletes = append(athletes, name)
		}
	}
	if len(athletes) == 0 {
		missing = append(missing, athleteExtractLabel)
	}
	if len(missing) > 0 {
		return nil, &MissingInputError{Keys: missing}
	}
	sort.Strings(athletes)
	return athletes, nil
}

// prepare returns a copy of f with upper-case column names and, when asked,
// normalized text.
func prepare(name string, f records.Frame, normalize bool) (records.Frame, error) {
	seen := make(map[string]string, len(f.Columns))
	for _, c := range f.Columns {
		u := records.Upper(c)
		if prev, dup := seen[u]; dup {
			return records.Frame{}, fmt.Errorf("reconcile: extract %s: columns %q and %q collide as %s", name, prev, c, u)
		}
		seen[u] = c
	}
	out := f.RenameColumns(records.Upper)
	for _, r := range out.Rows {
		for _, c := range out.Columns {
			if _, ok := r[c]; !ok {
				r[c] = nil
			}
		}
	}
	if normalize {
		builtin.Normalize{}.Apply(out.Rows)
	}
	return out, nil
}

func validateRegions(f records.Frame) error {
	if f.Len() == 0 {
		return nil
	}
	if miss := f.MissingColumns(requiredRegions...); len(miss) > 0 {
		return &SchemaViolationError{Extract: RegionsExtract, Row: -1, Column: miss[0]}
	}
	req := builtin.Require{Fields: []string{schema.ColNOC}}
	for i, r := range f.Rows {
		if col := req.Missing(r); col != "" {
			return &SchemaViolationError{Extract: RegionsExtract, Row: i, Column: col}
		}
	}
	return nil
}

func validateAthleteExtract(name string, f records.Frame) error {
	if f.Len() == 0 {
		return nil
	}
	if miss := f.MissingColumns(athleteExtractColumns...); len(miss) > 0 {
		return &SchemaViolationError{Extract: name, Row: -1, Column: miss[0]}
	}
	req := builtin.Require{Fields: athleteKey}
	for i, r := range f.Rows {
		if col := req.Missing(r); col != "" {
			return &SchemaViolationError{Extract: name, Row: i, Column: col}
		}
	}
	return nil
}

// buildAthletes keeps the first row per natural key and assigns its ID.
func buildAthletes(combined []records.Record) records.Frame {
	distinct := builtin.DeDup{Keys: athleteKey}.Apply(combined)
	out := records.Frame{Columns: athleteColumns, Rows: make([]records.Record, 0, len(distinct))}
	for _, r := range distinct {
		out.Append(records.Record{
			schema.ColAthleteID: AthleteID(r[schema.ColName], r[schema.ColSex], r[schema.ColNOC], r[schema.ColTeam]),
			schema.ColName:      r[schema.ColName],
			schema.ColSex:       r[schema.ColSex],
			schema.ColNOC:       r[schema.ColNOC],
			schema.ColTeam:      r[schema.ColTeam],
		})
	}
	return out
}

// buildResults joins combined back to athletes on (NAME, SEX, NOC), projects
// the event attributes, drops exact duplicates and assigns result IDs.
func buildResults(combined []records.Record, athletes records.Frame) (records.Frame, int, int) {
	index := make(map[string][]string, athletes.Len())
	for _, a := range athletes.Rows {
		k := string(records.EncodeRow(a, joinKey))
		index[k] = append(index[k], a[schema.ColAthleteID].(string))
	}

	var joined []records.Record
	unmatched := 0
	for _, r := range combined {
		ids := index[string(records.EncodeRow(r, joinKey))]
		if len(ids) == 0 {
			unmatched++
			continue
		}
		for _, id := range ids {
			row := make(records.Record, len(resultColumns))
			for _, c := range eventAttrs {
				row[c] = r[c]
			}
			row[schema.ColAthleteID] = id
			joined = append(joined, row)
		}
	}

	keys := append(append([]string(nil), eventAttrs...), schema.ColAthleteID)
	distinct, dups := builtin.DeDup{Keys: keys}.ApplyCount(joined)
	for _, row := range distinct {
		row[schema.ColEventResultID] = EventResultID(
			row[schema.ColYear], row[schema.ColSeason], row[schema.ColCity],
			row[schema.ColSport], row[schema.ColEvent], row[schema.ColMedal],
			row[schema.ColAthleteID].(string),
		)
	}
	return records.Frame{Columns: resultColumns, Rows: distinct}, unmatched, dups
}
