package headhunter

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/spigell/hh-interviewer/internal/candidate"
)

type Vacancies struct {
	Items []*Vacancy
}

type Vacancy struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Area struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"area,omitempty"`
	Experience struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"experience,omitempty"`
	Employer struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	AlternateURL string `json:"alternate_url,omitempty"`
	Description  string `json:"description,omitempty"`
	KeySkills    []struct {
		Name string `json:"name,omitempty"`
	} `json:"key_skills,omitempty"`
	Snipet struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	ProfessionalRoles []struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"professional_roles,omitempty"`
}

var (
	stripHTML = bluemonday.StrictPolicy()
	// hh.ru separates list items with block tags only, so they are turned into line breaks
	// before the markup is stripped.
	blockTags    = regexp.MustCompile(`(?i)</?(li|p|br|ul|ol|div|h[1-6])[^>]*>`)
	sentenceEnd  = regexp.MustCompile(`[.;]\s+`)
	spaceRunes   = regexp.MustCompile(`[ \t]+`)
	maxListItems = 8
)

// JobDescription maps the vacancy onto the interview job description. Key skills become
// keywords, the description list items become requirements, the snippet fills the gaps.
func (va *Vacancy) JobDescription() *candidate.JobDescription {
	jd := &candidate.JobDescription{
		Position: strings.TrimSpace(va.Name),
		Company:  strings.TrimSpace(va.Employer.Name),
		URL:      strings.TrimSpace(va.AlternateURL),
	}

	for _, skill := range va.KeySkills {
		if name := strings.TrimSpace(skill.Name); name != "" {
			jd.Keywords = append(jd.Keywords, name)
		}
	}

	items := descriptionItems(va.Description)
	if len(items) == 0 {
		items = sentences(va.Snipet.Requirement)
	}
	jd.Requirements = headOf(items, maxListItems)
	jd.Responsibilities = headOf(sentences(va.Snipet.Responsibility), maxListItems)

	return jd
}

func (va *Vacancy) String() string {
	if va.Employer.Name == "" {
		return fmt.Sprintf("%s [%s]", va.Name, va.ID)
	}
	return fmt.Sprintf("%s, %s [%s]", va.Name, va.Employer.Name, va.ID)
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

// Titles returns labels for interactive selection in result order.
func (v *Vacancies) Titles() []string {
	titles := make([]string, 0, len(v.Items))
	for _, vacancy := range v.Items {
		titles = append(titles, vacancy.String())
	}
	return titles
}

func (v *Vacancies) FindByID(id string) *Vacancy {
	for _, vacancy := range v.Items {
		if vacancy.ID == id {
			return vacancy
		}
	}
	return nil
}

// Exclude removes the vacancies matched by drop and returns their ids.
func (v *Vacancies) Exclude(drop func(*Vacancy) bool) []string {
	var excluded []string
	kept := v.Items[:0]
	for _, vacancy := range v.Items {
		if drop(vacancy) {
			excluded = append(excluded, vacancy.ID)
			continue
		}
		kept = append(kept, vacancy)
	}
	v.Items = kept
	return excluded
}

// Text is the plain text of the title and the search snippet.
func (va *Vacancy) Text() string {
	parts := []string{va.Name, va.Snipet.Requirement, va.Snipet.Responsibility}
	for _, skill := range va.KeySkills {
		parts = append(parts, skill.Name)
	}
	return html.UnescapeString(stripHTML.Sanitize(strings.Join(parts, " ")))
}

func descriptionItems(description string) []string {
	if strings.TrimSpace(description) == "" {
		return nil
	}

	text := blockTags.ReplaceAllString(description, "\n")
	text = html.UnescapeString(stripHTML.Sanitize(text))

	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(spaceRunes.ReplaceAllString(line, " "))
		line = strings.TrimRight(line, ";.,")
		if len([]rune(line)) < 3 {
			continue
		}
		items = append(items, line)
	}
	return items
}

func sentences(snippet string) []string {
	text := html.UnescapeString(stripHTML.Sanitize(snippet))

	var out []string
	for _, part := range sentenceEnd.Split(text, -1) {
		part = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(part), ".;"))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func headOf(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
