package schema

// Destination column names. The database schema is upper-case throughout.
const (
	ColNOC           = "NOC"
	ColRegion        = "REGION"
	ColNotes         = "NOTES"
	ColAthleteID     = "ATHLETEID"
	ColName          = "NAME"
	ColSex           = "SEX"
	ColAge           = "AGE"
	ColTeam          = "TEAM"
	ColEventResultID = "EVENTRESULTID"
	ColYear          = "YEAR"
	ColSeason        = "SEASON"
	ColCity          = "CITY"
	ColSport         = "SPORT"
	ColEvent         = "EVENT"
	ColMedal         = "MEDAL"
)

// Table names.
const (
	TableRegions      = "regions"
	TableAthletes     = "athletes"
	TableEventResults = "event_results"
)

// Regions holds National Olympic Committee reference data.
var Regions = Table{
	Name: TableRegions,
	Columns: []Column{
		{Name: ColNOC, Kind: KindText},
		{Name: ColRegion, Kind: KindText, Nullable: true},
		{Name: ColNotes, Kind: KindText, Nullable: true},
	},
	PrimaryKey: []string{ColNOC},
}

// Athletes holds one row per resolved athlete identity.
var Athletes = Table{
	Name: TableAthletes,
	Columns: []Column{
		{Name: ColAthleteID, Kind: KindText},
		{Name: ColName, Kind: KindText, Nullable: true},
		{Name: ColSex, Kind: KindText, Nullable: true},
		{Name: ColAge, Kind: KindInt, Nullable: true},
		{Name: ColNOC, Kind: KindText, Nullable: true},
		{Name: ColTeam, Kind: KindText, Nullable: true},
	},
	PrimaryKey:  []string{ColAthleteID},
	ForeignKeys: []ForeignKey{{Column: ColNOC, RefTable: TableRegions, RefColumn: ColNOC}},
}

// EventResults holds one row per athlete appearance in an event.
var EventResults = Table{
	Name: TableEventResults,
	Columns: []Column{
		{Name: ColEventResultID, Kind: KindText},
		{Name: ColYear, Kind: KindInt, Nullable: true},
		{Name: ColSeason, Kind: KindText, Nullable: true},
		{Name: ColCity, Kind: KindText, Nullable: true},
		{Name: ColSport, Kind: KindText, Nullable: true},
		{Name: ColEvent, Kind: KindText, Nullable: true},
		{Name: ColMedal, Kind: KindText, Nullable: true},
		{Name: ColAthleteID, Kind: KindText, Nullable: true},
	},
	PrimaryKey:  []string{ColEventResultID},
	ForeignKeys: []ForeignKey{{Column: ColAthleteID, RefTable: TableAthletes, RefColumn: ColAthleteID}},
}

// All returns the tables in foreign-key dependency order. Loads and
// provisioning both walk this order.
func All() []Table {
	return []Table{Regions, Athletes, EventResults}
}

// Lookup returns the table named name.
func Lookup(name string) (Table, bool) {
	for _, t := range All() {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
