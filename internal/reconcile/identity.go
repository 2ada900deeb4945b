package reconcile

import (
	"crypto/sha256"
	"encoding/hex"

	"olympics/internal/records"
	"olympics/internal/schema"
)

// Field is one named value contributing to an identity.
type Field struct {
	Name  string
	Value any
}

// ID hashes fields in exactly the order given. Each (name, value) pair is
// length-prefixed before hashing, so the result does not depend on map order,
// value formatting or where one field ends and the next begins. The result is
// 64 lowercase hex characters.
func ID(fields ...Field) string {
	var buf []byte
	for _, f := range fields {
		buf = records.AppendEncoded(buf, f.Name, f.Value)
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:])
}

// AthleteID derives the surrogate key of an athlete from its natural key.
// Age is deliberately not part of the key.
func AthleteID(name, sex, noc, team any) string {
	return ID(
		Field{schema.ColName, name},
		Field{schema.ColSex, sex},
		Field{schema.ColNOC, noc},
		Field{schema.ColTeam, team},
	)
}

// EventResultID derives the surrogate key of one result row, including the
// resolved athlete.
func EventResultID(year, season, city, sport, event, medal any, athleteID string) string {
	return ID(
		Field{schema.ColYear, year},
		Field{schema.ColSeason, season},
		Field{schema.ColCity, city},
		Field{schema.ColSport, sport},
		Field{schema.ColEvent, event},
		Field{schema.ColMedal, medal},
		Field{schema.ColAthleteID, athleteID},
	)
}
