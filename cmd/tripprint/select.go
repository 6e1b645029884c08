package main

import (
	"errors"
	"fmt"

	"github.com/gobwas/glob"

	"github.com/cognicore/tripprint/pkg/tripprint/internalerr"
)

// selectEntities expands vehicle arguments against the known vehicles. Each
// argument is a glob pattern such as "2352*"; no arguments selects all.
// Results keep the order of known and are not repeated.
func selectEntities(known, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return known, nil
	}

	var out []string
	picked := make(map[string]struct{})
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("invalid vehicle pattern %q", p), err)
		}
		matched := false
		for _, id := range known {
			if !g.Match(id) {
				continue
			}
			matched = true
			if _, ok := picked[id]; ok {
				continue
			}
			picked[id] = struct{}{}
			out = append(out, id)
		}
		if !matched {
			return nil, fmt.Errorf("no vehicle matches %q: %w", p, internalerr.ErrUnknownEntity)
		}
	}
	return out, nil
}
