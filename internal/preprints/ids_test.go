package preprints

import (
	"testing"

	"github.com/user/prereview/internal/types"
)

func TestParseIndeterminate(t *testing.T) {
	tests := []struct {
		in   string
		want types.IndeterminatePreprintID
	}{
		{"10.1101/2024.01.01.573838", types.IndeterminatePreprintID{Server: "biorxiv", Value: "10.1101/2024.01.01.573838"}},
		{"doi:10.31234/OSF.IO/ABCDE", types.IndeterminatePreprintID{Server: "psyarxiv", Value: "10.31234/osf.io/abcde"}},
		{"https://doi.org/10.21203/rs.3.rs-1234567/v1", types.IndeterminatePreprintID{Server: "research-square", Value: "10.21203/rs.3.rs-1234567/v1"}},
		{"https://arxiv.org/abs/2401.01234v2", types.IndeterminatePreprintID{Server: "arxiv", Value: "10.48550/arxiv.2401.01234"}},
		{"https://www.biorxiv.org/content/10.1101/2024.01.01.573838v1.full", types.IndeterminatePreprintID{Server: "biorxiv", Value: "10.1101/2024.01.01.573838"}},
		{"10.1038/s41586-024-00001-1", types.IndeterminatePreprintID{Value: "10.1038/s41586-024-00001-1"}},
		{"https://example.com/paper", types.IndeterminatePreprintID{Value: "https://example.com/paper"}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseIndeterminate(tc.in); got != tc.want {
				t.Errorf("ParseIndeterminate(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestServerForDOI(t *testing.T) {
	if server, ok := ServerForDOI("10.48550/arxiv.2401.01234"); !ok || server != "arxiv" {
		t.Errorf("expected arxiv, got %q %v", server, ok)
	}
	if _, ok := ServerForDOI("not-a-doi"); ok {
		t.Error("expected no server for a non-DOI")
	}
}
