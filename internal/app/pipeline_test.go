package app

import "testing"

func TestNeedsScoreUpdate(t *testing.T) {
	stored := func(v float32) *float32 { return &v }

	cases := []struct {
		name     string
		stored   *float32
		computed float32
		want     bool
	}{
		{"never computed", nil, 123.4, true},
		{"within tolerance", stored(100.0), 100.0005, false},
		{"exactly at tolerance", stored(100.0), 100.001, false},
		{"exceeds tolerance", stored(100.0), 100.01, true},
		{"unchanged", stored(250.5), 250.5, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := needsScoreUpdate(c.stored, c.computed); got != c.want {
				t.Fatalf("needsScoreUpdate(%v, %v) = %v, want %v", c.stored, c.computed, got, c.want)
			}
		})
	}
}

func TestExceedsNotableEventShare(t *testing.T) {
	cases := []struct {
		name       string
		scoreValue float64
		aggregate  float64
		want       bool
	}{
		{"well below share", 10, 1000, false},
		{"exactly at share", 1000.0 / 21.5, 1000, false},
		{"just above share", 1000.0/21.5 + 0.001, 1000, true},
		{"dominates aggregate", 900, 1000, true},
		{"positive score over zero aggregate triggers", 5, 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := exceedsNotableEventShare(c.scoreValue, c.aggregate); got != c.want {
				t.Fatalf("exceedsNotableEventShare(%v, %v) = %v, want %v", c.scoreValue, c.aggregate, got, c.want)
			}
		})
	}
}

func TestQualifiesAsNotableEvent(t *testing.T) {
	cases := []struct {
		name         string
		ratingChange float64
		want         bool
	}{
		{"below minimum", 4.99, false},
		{"exactly minimum", 5.0, true},
		{"above minimum", 12.3, true},
		{"negative change", -5.0, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := qualifiesAsNotableEvent(c.ratingChange); got != c.want {
				t.Fatalf("qualifiesAsNotableEvent(%v) = %v, want %v", c.ratingChange, got, c.want)
			}
		})
	}
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float32
		want string
	}{
		{0, "0"},
		{123.456, "123.456"},
		{-5, "-5"},
	}
	for _, c := range cases {
		if got := formatFloat(c.in); got != c.want {
			t.Fatalf("formatFloat(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
