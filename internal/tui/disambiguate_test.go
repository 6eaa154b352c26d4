package tui

import (
	"testing"

	"github.com/l3aro/tldrs/internal/tldrserr"
	"github.com/stretchr/testify/assert"
)

func TestDisambiguateEntryRejectsNonAmbiguousError(t *testing.T) {
	_, err := DisambiguateEntry(tldrserr.NotFound("nope"))
	assert.Error(t, err)
}

func TestDisambiguateEntryRejectsAmbiguousErrorWithoutCandidates(t *testing.T) {
	_, err := DisambiguateEntry(&tldrserr.Error{Code: tldrserr.CodeAmbiguous, Message: "ambiguous"})
	assert.Error(t, err)
}
