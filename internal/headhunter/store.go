package headhunter

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/candidate"
)

// VacancyStore loads the job description from a published hh.ru vacancy.
type VacancyStore struct {
	client *Client
	id     string
}

func NewVacancyStore(client *Client, vacancyID string) *VacancyStore {
	return &VacancyStore{client: client, id: vacancyID}
}

func (s *VacancyStore) JobDescription(ctx context.Context) (*candidate.JobDescription, error) {
	vacancy, err := s.client.GetVacancy(ctx, s.id)
	if err != nil {
		return nil, err
	}

	jd := vacancy.JobDescription()
	if err := candidate.Validate(jd); err != nil {
		return nil, fmt.Errorf("vacancy %s: %w", s.id, err)
	}

	s.client.logger.Info("job description loaded from hh.ru",
		zap.String("vacancy", vacancy.String()),
		zap.Int("keywords", len(jd.Keywords)),
		zap.Int("requirements", len(jd.Requirements)),
	)
	return jd, nil
}

// ResumeStore loads the candidate profile from one of the user's hh.ru resumes. It needs an
// access token.
type ResumeStore struct {
	client *Client
	id     string
}

func NewResumeStore(client *Client, resumeID string) *ResumeStore {
	return &ResumeStore{client: client, id: resumeID}
}

func (s *ResumeStore) Resume(ctx context.Context) (*candidate.Resume, error) {
	details, err := s.client.GetResumeDetails(ctx, s.id)
	if err != nil {
		return nil, err
	}

	profile, err := details.Profile()
	if err != nil {
		return nil, err
	}
	if err := candidate.Validate(profile); err != nil {
		return nil, fmt.Errorf("resume %s: %w", s.id, err)
	}

	s.client.logger.Info("resume loaded from hh.ru",
		zap.String("resume", details.Title),
		zap.Int("skills", len(profile.Skills)),
	)
	return profile, nil
}
