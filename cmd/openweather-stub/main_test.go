package main

import (
	"reflect"
	"testing"
)

func TestParseCities(t *testing.T) {
	got := parseCities(" Tokyo:jp, New York:US,,Atlantis , :FR")
	want := map[string]string{
		"Tokyo":    "JP",
		"New York": "US",
		"Atlantis": "XX",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseCities() = %v, want %v", got, want)
	}
}
