// internal/types/models_test.go
package types

import (
	"testing"
)

func TestPreprintIDValueEquality(t *testing.T) {
	a := PreprintID{Server: "biorxiv", Value: "10.1101/2024.01.01.123456"}
	b := PreprintID{Server: "biorxiv", Value: "10.1101/2024.01.01.123456"}
	if a != b {
		t.Error("expected ids with equal fields to be equal")
	}
	if a.String() != "biorxiv:10.1101/2024.01.01.123456" {
		t.Errorf("unexpected string form %s", a)
	}
	if a.IsZero() || !(PreprintID{}).IsZero() {
		t.Error("unexpected IsZero result")
	}
}

func TestIndeterminatePreprintIDString(t *testing.T) {
	if s := (IndeterminatePreprintID{Value: "https://example.com/x"}).String(); s != "https://example.com/x" {
		t.Errorf("unexpected string form %s", s)
	}
	if s := (IndeterminatePreprintID{Server: "arxiv", Value: "2401.00001"}).String(); s != "arxiv:2401.00001" {
		t.Errorf("unexpected string form %s", s)
	}
}
