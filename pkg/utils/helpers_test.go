package utils

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	def := 35 * time.Second
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"10s", 10 * time.Second},
		{"1m30s", 90 * time.Second},
		{"", def},
		{"soon", def},
	}
	for _, tc := range cases {
		if got := ParseDuration(tc.in, def); got != tc.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		v, min, max, want float64
	}{
		{5, 3, 200, 5},
		{1, 3, 200, 3},
		{900, 3, 200, 200},
		{3, 3, 200, 3},
		{200, 3, 200, 200},
	}
	for _, tc := range cases {
		if got := Clamp(tc.v, tc.min, tc.max); got != tc.want {
			t.Errorf("Clamp(%v, %v, %v) = %v, want %v", tc.v, tc.min, tc.max, got, tc.want)
		}
	}
}
