package headhunter

import (
	"context"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/hh-interviewer/internal/candidate"
)

type Resumes struct {
	Items []*Resume
}

type Resume struct {
	Title string
	ID    string `json:"id,omitempty"`
}

type ResumeDetails struct {
	ID    string
	Title string
	Raw   map[string]any
}

// resumeBody is the part of the hh.ru resume document the interview uses.
type resumeBody struct {
	FirstName  string   `json:"first_name"`
	LastName   string   `json:"last_name"`
	Title      string   `json:"title"`
	About      string   `json:"skills"`
	SkillSet   []string `json:"skill_set"`
	Experience []struct {
		Company     string `json:"company"`
		Position    string `json:"position"`
		Description string `json:"description"`
	} `json:"experience"`
	Education struct {
		Primary []struct {
			Name         string `json:"name"`
			Organization string `json:"organization"`
			Result       string `json:"result"`
		} `json:"primary"`
	} `json:"education"`
}

func (c *Client) getResumes(ctx context.Context, id string) (*Resumes, error) {
	apiURLMineResumes := fmt.Sprintf("%s/resumes/%s", c.APIURL, id)

	items, err := c.GetItems(ctx, apiURLMineResumes, nil, 0)
	if err != nil {
		return nil, err
	}

	var resumes []*Resume
	if err = mapstructure.Decode(items, &resumes); err != nil {
		return nil, err
	}

	return &Resumes{
		Items: resumes,
	}, nil
}

func (r *Resumes) Len() int {
	return len(r.Items)
}

func (r *Resumes) Titles() []string {
	ids := make([]string, 0, len(r.Items))

	for _, v := range r.Items {
		ids = append(ids, v.Title)
	}

	return ids
}

func (r *Resumes) FindByTitle(title string) *Resume {
	for _, resume := range r.Items {
		if resume.Title == title {
			return resume
		}
	}

	return nil
}

func (c *Client) GetResumeDetails(ctx context.Context, id string) (*ResumeDetails, error) {
	if id == "" {
		return nil, fmt.Errorf("resume id is required")
	}

	apiURL := fmt.Sprintf("%s/resumes/%s", c.APIURL, id)

	var raw map[string]any
	if err := c.getJSON(ctx, apiURL, nil, &raw); err != nil {
		return nil, fmt.Errorf("get resume %s: %w", id, err)
	}

	if raw == nil {
		raw = make(map[string]any)
	}

	return &ResumeDetails{
		ID:    valueAsString(raw["id"]),
		Title: valueAsString(raw["title"]),
		Raw:   raw,
	}, nil
}

// Profile converts the raw resume into a candidate profile.
func (d *ResumeDetails) Profile() (*candidate.Resume, error) {
	var body resumeBody
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &body,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(d.Raw); err != nil {
		return nil, fmt.Errorf("decode resume %s: %w", d.ID, err)
	}

	profile := &candidate.Resume{
		Name:    strings.TrimSpace(strings.TrimSpace(body.FirstName) + " " + strings.TrimSpace(body.LastName)),
		Summary: strings.TrimSpace(body.Title),
	}
	if profile.Name == "" {
		profile.Name = profile.Summary
	}
	if about := strings.TrimSpace(stripHTML.Sanitize(body.About)); about != "" {
		if profile.Summary != "" {
			profile.Summary += ". "
		}
		profile.Summary += about
	}

	for _, skill := range body.SkillSet {
		if skill = strings.TrimSpace(skill); skill != "" {
			profile.Skills = append(profile.Skills, skill)
		}
	}
	for _, exp := range body.Experience {
		entry := strings.TrimSpace(exp.Position)
		if company := strings.TrimSpace(exp.Company); company != "" {
			entry = fmt.Sprintf("%s at %s", entry, company)
		}
		if entry = strings.TrimSpace(entry); entry != "" {
			profile.Experience = append(profile.Experience, entry)
		}
	}
	for _, edu := range body.Education.Primary {
		entry := strings.TrimSpace(edu.Name)
		if result := strings.TrimSpace(edu.Result); result != "" {
			entry = fmt.Sprintf("%s, %s", entry, result)
		}
		if entry != "" {
			profile.Education = append(profile.Education, entry)
		}
	}

	return profile, nil
}

func valueAsString(v any) string {
	if v == nil {
		return ""
	}

	switch typed := v.(type) {
	case string:
		return typed
	case fmt.Stringer:
		return typed.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
