package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAthleteID_Golden(t *testing.T) {
	t.Parallel()

	// Fixed across runs, processes and platforms.
	const want = "9feb001a4b8cca02e9ee4d63ae1743cdfe28cfb1c3b6f2c772a3666f17eeb180"
	for i := 0; i < 3; i++ {
		require.Equal(t, want, AthleteID("A", "M", "USA", "USA"))
	}
}

func TestEventResultID_Golden(t *testing.T) {
	t.Parallel()

	athlete := AthleteID("A", "M", "USA", "USA")
	const want = "765b4a1fa1dde9872de9a34fe9c828ac939a494f9b633171f9aff50132dd7a3d"
	require.Equal(t, want, EventResultID("2000", "Summer", "Sydney", "Swim", "100m", "Gold", athlete))
	// Integer and string spellings of a year canonicalize identically.
	require.Equal(t, want, EventResultID(2000, "Summer", "Sydney", "Swim", "100m", "Gold", athlete))
	require.Equal(t, want, EventResultID(int64(2000), "Summer", "Sydney", "Swim", "100m", "Gold", athlete))
}

func TestID_Properties(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b []Field
	}{
		{"null differs from empty", []Field{{"MEDAL", nil}}, []Field{{"MEDAL", ""}}},
		{"field boundaries", []Field{{"A", "xy"}, {"B", "z"}}, []Field{{"A", "x"}, {"B", "yz"}}},
		{"order matters", []Field{{"A", "1"}, {"B", "2"}}, []Field{{"B", "2"}, {"A", "1"}}},
		{"names matter", []Field{{"A", "1"}}, []Field{{"B", "1"}}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.NotEqual(t, ID(tc.a...), ID(tc.b...))
		})
	}

	require.Equal(t, "241f1a80505359b40fb43c63c4be46a4a022a154a963457bb44035168d971db5", ID(Field{"MEDAL", nil}))
	require.Len(t, ID(), 64)
}

func TestAthleteID_TeamChangeIsDistinct(t *testing.T) {
	t.Parallel()
	require.NotEqual(t, AthleteID("A", "M", "USA", "USA"), AthleteID("A", "M", "USA", "USA-1"))
}
