package candidate

import (
	"fmt"
	"strings"
)

// Resume holds the parsed candidate profile.
type Resume struct {
	Name       string   `mapstructure:"name" json:"name" validate:"required"`
	Contact    string   `mapstructure:"contact" json:"contact,omitempty"`
	Summary    string   `mapstructure:"summary" json:"summary,omitempty"`
	Education  []string `mapstructure:"education" json:"education,omitempty"`
	Experience []string `mapstructure:"experience" json:"experience,omitempty"`
	Skills     []string `mapstructure:"skills" json:"skills,omitempty" validate:"dive,required"`
	Projects   []string `mapstructure:"projects" json:"projects,omitempty" validate:"dive,required"`
}

// JobDescription holds the target position.
type JobDescription struct {
	Position         string   `mapstructure:"position" json:"position" validate:"required"`
	Company          string   `mapstructure:"company" json:"company,omitempty"`
	Keywords         []string `mapstructure:"keywords" json:"keywords,omitempty" validate:"dive,required"`
	Requirements     []string `mapstructure:"requirements" json:"requirements,omitempty"`
	Responsibilities []string `mapstructure:"responsibilities" json:"responsibilities,omitempty"`
	URL              string   `mapstructure:"url" json:"url,omitempty" validate:"omitempty,url"`
}

// ProjectName returns the project title without its technology list.
func ProjectName(project string) string {
	if idx := strings.Index(project, "("); idx >= 0 {
		return strings.TrimSpace(project[:idx])
	}
	return strings.TrimSpace(project)
}

// ProjectTechnologies parses the technologies listed in a "Name (A, B)" project entry.
func ProjectTechnologies(project string) []string {
	open := strings.Index(project, "(")
	if open < 0 {
		return nil
	}
	rest := project[open+1:]
	closing := strings.Index(rest, ")")
	if closing < 0 {
		return nil
	}

	var techs []string
	for _, part := range strings.Split(rest[:closing], ",") {
		if tech := strings.TrimSpace(part); tech != "" {
			techs = append(techs, tech)
		}
	}
	return techs
}

// KeyEntities returns the skills and project technologies of the resume, deduplicated
// ignoring case and in first-seen order.
func (r *Resume) KeyEntities() []string {
	if r == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(name string) {
		name = strings.TrimSpace(name)
		key := strings.ToLower(name)
		if name == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}

	for _, skill := range r.Skills {
		add(skill)
	}
	for _, project := range r.Projects {
		for _, tech := range ProjectTechnologies(project) {
			add(tech)
		}
	}
	return out
}

// Describe returns a one-line overview used in logs and reports.
func (r *Resume) Describe() string {
	if r == nil {
		return "no resume"
	}
	return fmt.Sprintf("candidate %s: %d education entries, %d experience entries, %d skills, %d projects",
		r.Name, len(r.Education), len(r.Experience), len(r.Skills), len(r.Projects))
}

func (j *JobDescription) Describe() string {
	if j == nil {
		return "no job description"
	}
	keywords := j.Keywords
	if len(keywords) > 8 {
		keywords = keywords[:8]
	}
	return fmt.Sprintf("position %s: keywords [%s], %d requirements, %d responsibilities",
		j.Position, strings.Join(keywords, ", "), len(j.Requirements), len(j.Responsibilities))
}
