// Package knowledge links the candidate profile to the job description as subject, relation,
// object triplets and suggests what technical questions should focus on.
package knowledge

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/hh-interviewer/internal/candidate"
	"github.com/spigell/hh-interviewer/internal/interview"
)

const (
	RelationAppliedIn = "applied in"
	RelationUsedIn    = "used in"
	RelationUses      = "uses"
	RelationRequires  = "requires"
	RelationMatches   = "matches"

	maxSubjectLength = 60
	focusWindow      = 3
	focusGaps        = 2
)

// Graph holds the triplets built from one resume and one job description.
type Graph struct {
	triplets []interview.Triplet
	matched  []string
	gaps     []string
}

// Build derives the triplets. Either profile may be nil.
func Build(resume *candidate.Resume, job *candidate.JobDescription) *Graph {
	g := &Graph{}
	seen := make(map[interview.Triplet]struct{})
	add := func(subject, relation, object string) {
		t := interview.Triplet{
			Subject:  shorten(subject),
			Relation: relation,
			Object:   shorten(object),
		}
		if t.Subject == "" || t.Object == "" {
			return
		}
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		g.triplets = append(g.triplets, t)
	}

	var skills []string
	if resume != nil {
		skills = resume.KeyEntities()

		for _, project := range resume.Projects {
			name := candidate.ProjectName(project)
			techs := candidate.ProjectTechnologies(project)
			for _, skill := range resume.Skills {
				if containsFold(techs, skill) || mentions(project, skill) {
					add(skill, RelationAppliedIn, name)
				}
			}
			for _, tech := range techs {
				add(name, RelationUses, tech)
			}
		}

		for _, exp := range resume.Experience {
			for _, skill := range skills {
				if mentions(exp, skill) {
					add(skill, RelationUsedIn, exp)
				}
			}
		}
	}

	if job != nil {
		for _, req := range job.Requirements {
			for _, skill := range skills {
				if mentions(req, skill) {
					add(req, RelationRequires, skill)
				}
			}
		}

		for _, keyword := range job.Keywords {
			keyword = strings.TrimSpace(keyword)
			if keyword == "" {
				continue
			}
			if containsFold(skills, keyword) {
				g.matched = append(g.matched, keyword)
				add(job.Position, RelationMatches, keyword)
				continue
			}
			if !containsFold(g.gaps, keyword) {
				g.gaps = append(g.gaps, keyword)
			}
		}
	}

	return g
}

// Triplets returns the candidate triplets in build order.
func (g *Graph) Triplets() []interview.Triplet {
	return append([]interview.Triplet(nil), g.triplets...)
}

// SkillGaps returns the job keywords the resume does not mention.
func (g *Graph) SkillGaps() []string {
	return append([]string(nil), g.gaps...)
}

// Matched returns the job keywords covered by the resume.
func (g *Graph) Matched() []string {
	return append([]string(nil), g.matched...)
}

// SuggestFocus combines the ability level for the recent scores with the first skill gaps.
func (g *Graph) SuggestFocus(scores []float64) string {
	level, ok := AbilityFor(scores)
	if !ok {
		return ""
	}

	focus := fmt.Sprintf("%s level: %s", level.Name, level.Focus)
	if len(g.gaps) > 0 {
		focus += "; probe missing skills: " + strings.Join(headOf(g.gaps, focusGaps), ", ")
	}
	return focus
}

func mentions(text, term string) bool {
	term = strings.TrimSpace(term)
	return term != "" && strings.Contains(strings.ToLower(text), strings.ToLower(term))
}

func containsFold(items []string, term string) bool {
	for _, item := range items {
		if strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(term)) {
			return true
		}
	}
	return false
}

func shorten(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= maxSubjectLength {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:maxSubjectLength])) + "..."
}

func headOf(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
