package filtering

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/headhunter"
)

type employersFilter struct {
	toggle
	employers []string
}

// NewExcludedEmployers drops vacancies of the listed employers. Entries match the employer
// id or, ignoring case, its name.
func NewExcludedEmployers(employers []string) Filter {
	return &employersFilter{employers: employers}
}

func (f *employersFilter) Name() string { return "employers" }

func (f *employersFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	initial := v.Len()
	if len(f.employers) == 0 {
		return v, Step{Initial: initial, Left: initial}, nil
	}

	excluded := v.Exclude(func(va *headhunter.Vacancy) bool {
		for _, e := range f.employers {
			e = strings.TrimSpace(e)
			if e != "" && (e == va.Employer.ID || strings.EqualFold(e, va.Employer.Name)) {
				return true
			}
		}
		return false
	})
	if len(excluded) > 0 {
		deps.Logger.Info("excluding vacancies by employers",
			zap.Strings("excluded_employers", f.employers),
			zap.Strings("excluded_vacancies", excluded),
			zap.Int("vacancies_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(excluded), Left: v.Len()}, nil
}

func (f *employersFilter) Status() Status {
	details := map[string]string{}
	if len(f.employers) > 0 {
		details["employers"] = strings.Join(f.employers, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type excludeFileFilter struct {
	toggle
	path string
}

// NewExcludeFile drops vacancies listed in a file, one id or vacancy URL per line. Lines
// starting with # are ignored.
func NewExcludeFile(path string) Filter {
	return &excludeFileFilter{path: strings.TrimSpace(path)}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	initial := v.Len()
	if f.path == "" {
		return v, Step{Initial: initial, Left: initial}, nil
	}

	ids, err := readExcludeFile(f.path)
	if err != nil {
		return v, Step{}, fmt.Errorf("getting excluded vacancies from file: %w", err)
	}

	removed := v.Exclude(func(va *headhunter.Vacancy) bool {
		_, ok := ids[va.ID]
		return ok
	})
	if len(removed) > 0 {
		deps.Logger.Info("excluding vacancies based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_vacancies", removed),
			zap.Int("vacancies_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(removed), Left: v.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

func readExcludeFile(name string) (map[string]struct{}, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	ids := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// https://hh.ru/vacancy/123?from=search -> 123
		line = path.Base(strings.SplitN(line, "?", 2)[0])
		ids[line] = struct{}{}
	}
	return ids, scanner.Err()
}

type skillMatchFilter struct {
	toggle
	minMatches int
}

// NewSkillMatch keeps vacancies whose title or snippet mention at least minMatches of the
// resume skills. It is a no-op without a resume.
func NewSkillMatch(minMatches int) Filter {
	f := &skillMatchFilter{minMatches: minMatches}
	if minMatches <= 0 {
		f.Disable("minimum skill matches is not set")
	}
	return f
}

func (f *skillMatchFilter) Name() string { return "skill_match" }

func (f *skillMatchFilter) Apply(_ context.Context, deps Deps, v *headhunter.Vacancies) (*headhunter.Vacancies, Step, error) {
	initial := v.Len()
	skills := deps.Resume.KeyEntities()
	if len(skills) == 0 {
		deps.Logger.Info("skipping skill match", zap.String("reason", "resume has no skills"))
		return v, Step{Initial: initial, Left: initial}, nil
	}

	dropped := v.Exclude(func(va *headhunter.Vacancy) bool {
		text := strings.ToLower(va.Text())
		var matches int
		for _, skill := range skills {
			if strings.Contains(text, strings.ToLower(skill)) {
				matches++
			}
		}
		return matches < f.minMatches
	})
	if len(dropped) > 0 {
		deps.Logger.Info("excluding vacancies not matching the resume",
			zap.Int("min_matches", f.minMatches),
			zap.Strings("excluded_vacancies", dropped),
			zap.Int("vacancies_left", v.Len()),
		)
	}

	return v, Step{Initial: initial, Dropped: len(dropped), Left: v.Len()}, nil
}

func (f *skillMatchFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"min_matches": strconv.Itoa(f.minMatches)},
	}
}
