// Package tui provides interactive prompts for resolving ambiguity that
// a non-interactive pipeline run cannot decide on its own.
package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/l3aro/tldrs/internal/tldrserr"
)

// DisambiguateEntry prompts the user to pick one of an ambiguous entry
// point's candidate symbols. err must wrap a tldrserr.Error carrying
// tldrserr.CodeAmbiguous, as ProjectIndex.ResolveEntry returns when
// allowDisambiguate is false and more than one symbol matches.
func DisambiguateEntry(err error) (string, error) {
	var terr *tldrserr.Error
	if !errors.As(err, &terr) || terr.Code != tldrserr.CodeAmbiguous {
		return "", fmt.Errorf("disambiguate: not an ambiguous-entry error: %w", err)
	}

	candidatesAny, ok := terr.Details["candidates"]
	if !ok {
		return "", fmt.Errorf("disambiguate: ambiguous error carries no candidates")
	}
	candidates, ok := candidatesAny.([]string)
	if !ok || len(candidates) == 0 {
		return "", fmt.Errorf("disambiguate: ambiguous error carries no usable candidates")
	}

	options := make([]huh.Option[string], len(candidates))
	for i, c := range candidates {
		options[i] = huh.NewOption(c, c)
	}

	var chosen string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(terr.Message).
				Description("Multiple symbols matched; pick one to continue").
				Options(options...).
				Value(&chosen),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("disambiguation prompt failed: %w", err)
	}
	return chosen, nil
}
