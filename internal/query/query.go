// Package query implements the read-side filters over a snapshot of
// profiles: projects by skill, skill frequency and free-text search.
//
// Every function is pure. Inputs are never modified and results never
// alias the caller's slices.
package query

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/kalambet/folio/internal/profile"
)

// ErrInvalidArgument is returned when a required parameter is empty.
var ErrInvalidArgument = errors.New("invalid argument")

// AnnotatedProject is a project tagged with its owning profile.
type AnnotatedProject struct {
	profile.Project
	ProfileName string `json:"profileName"`
}

// SkillCount is one entry of the skill frequency table.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// FilterProjectsBySkill returns every project owned by a profile whose
// skills contain skill exactly (case-sensitive). Results follow profile
// order, then project order.
func FilterProjectsBySkill(profiles []profile.Profile, skill string) ([]AnnotatedProject, error) {
	if skill == "" {
		return nil, fmt.Errorf("%w: skill is required", ErrInvalidArgument)
	}

	out := []AnnotatedProject{}
	for _, p := range profiles {
		if !slices.Contains(p.Skills, skill) {
			continue
		}
		for _, pr := range p.Projects {
			pr.ProfileID = p.ID
			pr.Links = slices.Clone(pr.Links)
			out = append(out, AnnotatedProject{Project: pr, ProfileName: p.Name})
		}
	}
	return out, nil
}

// TopSkills counts every skill occurrence across profiles, duplicates
// within one profile included, and orders the result by count descending.
// Equal counts keep the order in which the skill was first seen.
func TopSkills(profiles []profile.Profile) []SkillCount {
	index := make(map[string]int)
	out := []SkillCount{}
	for _, p := range profiles {
		for _, s := range p.Skills {
			i, ok := index[s]
			if !ok {
				i = len(out)
				index[s] = i
				out = append(out, SkillCount{Skill: s})
			}
			out[i].Count++
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Search returns the profiles that match query through any of: an exact
// skill token, a substring of a project title or description, or a
// substring of a work description. Matching profiles are returned whole,
// in input order.
func Search(profiles []profile.Profile, query string) ([]profile.Profile, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidArgument)
	}

	out := []profile.Profile{}
	for _, p := range profiles {
		if matches(p, query) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

func matches(p profile.Profile, query string) bool {
	if slices.Contains(p.Skills, query) {
		return true
	}
	for _, pr := range p.Projects {
		if strings.Contains(pr.Title, query) || strings.Contains(pr.Description, query) {
			return true
		}
	}
	for _, w := range p.Work {
		if strings.Contains(w.Description, query) {
			return true
		}
	}
	return false
}

func clone(p profile.Profile) profile.Profile {
	c := p
	c.Skills = slices.Clone(p.Skills)
	if p.Links != nil {
		c.Links = make(map[string]string, len(p.Links))
		for k, v := range p.Links {
			c.Links[k] = v
		}
	}
	c.Projects = slices.Clone(p.Projects)
	for i := range c.Projects {
		c.Projects[i].Links = slices.Clone(c.Projects[i].Links)
	}
	c.Work = slices.Clone(p.Work)
	return c
}
