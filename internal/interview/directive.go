package interview

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/candidate"
)

const (
	historyTurns     = 3
	maxReferences    = 3
	profileItemLimit = 3
)

// DefaultDemonstration is the example exchange appended to every directive.
const DefaultDemonstration = `Interviewer: > Tell me about your role and contribution in the payments project.
Candidate: I led the backend team and designed the core settlement services.
Interviewer: > What was the hardest technical challenge there and how did you solve it?
Candidate: Peak traffic overloaded the database, so I added a Redis cache and reworked the slow queries.`

// DirectiveInput is a snapshot of everything the directive is built from.
type DirectiveInput struct {
	Stage          Stage
	Level          Level
	QuestionNumber int
	Quota          int
	Resume         *candidate.Resume
	Job            *candidate.JobDescription
	Focus          string
	References     []string
	History        []Turn
	Evidence       []Triplet
	RecentEntities []string
	ActiveEntities []string
}

// DirectiveAssembler composes the text handed to the generator.
type DirectiveAssembler struct {
	demonstration string
	logger        *zap.Logger
}

func NewDirectiveAssembler(logger *zap.Logger, demonstration string) *DirectiveAssembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectiveAssembler{demonstration: demonstration, logger: logger}
}

type section struct {
	title string
	build func(in DirectiveInput) string
}

// Build returns the directive. Sections without content, or whose builder panics, are left out.
func (a *DirectiveAssembler) Build(in DirectiveInput) string {
	sections := []section{
		{"Instruction", instructionSection},
		{"Stage context", stageSection},
		{"Difficulty context", difficultySection},
		{"Reference questions", referenceSection},
		{"History", historySection},
		{"Evidence", evidenceSection},
		{"Demonstration", func(DirectiveInput) string { return strings.TrimSpace(a.demonstration) }},
	}

	var b strings.Builder
	for _, s := range sections {
		body := a.safeBuild(s, in)
		if body == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString("### ")
		b.WriteString(s.title)
		b.WriteString("\n")
		b.WriteString(body)
	}
	return b.String()
}

func (a *DirectiveAssembler) safeBuild(s section, in DirectiveInput) (body string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Warn("directive section omitted",
				zap.String("section", s.title),
				zap.Any("panic", r),
			)
			body = ""
		}
	}()
	return strings.TrimSpace(s.build(in))
}

func instructionSection(in DirectiveInput) string {
	if in.Stage >= StageCompleted {
		return ""
	}

	var b strings.Builder
	b.WriteString("You are a professional interviewer")
	if in.Job != nil && in.Job.Position != "" {
		fmt.Fprintf(&b, " hiring for the %s position", in.Job.Position)
	}
	b.WriteString(".\n")
	fmt.Fprintf(&b, "Current stage: %s", in.Stage.Title())
	if in.QuestionNumber > 0 && in.Quota > 0 {
		fmt.Fprintf(&b, " (question %d of %d)", in.QuestionNumber, in.Quota)
	}
	b.WriteString(".\n")
	if in.Level.Valid() {
		fmt.Fprintf(&b, "Difficulty: %s (%s).\n", in.Level, in.Level.Info().Name)
	}
	b.WriteString("Rules:\n")
	b.WriteString("- Ask exactly one question and do not answer it.\n")
	b.WriteString("- Do not repeat questions from the history.\n")
	b.WriteString("- Write the question on one line right after a single '>' character.")
	return b.String()
}

func stageSection(in DirectiveInput) string {
	var b strings.Builder
	switch in.Stage {
	case StageIntro:
		b.WriteString("Assess background, communication and career plans: self introduction, career goals, ")
		b.WriteString("knowledge of the company and the role, attitude to work.\n")
		if r := in.Resume; r != nil {
			if r.Name != "" {
				fmt.Fprintf(&b, "- Candidate: %s\n", r.Name)
			}
			fmt.Fprintf(&b, "- Work experience entries: %d\n", len(r.Experience))
			if len(r.Skills) > 0 {
				fmt.Fprintf(&b, "- Main skills: %s\n", strings.Join(headOf(r.Skills, profileItemLimit), ", "))
			}
		}
		if in.Job != nil && in.Job.Position != "" {
			fmt.Fprintf(&b, "- Target position: %s\n", in.Job.Position)
		}
	case StageExperience:
		b.WriteString("Dig into the candidate's projects and work history: implementation details, ")
		b.WriteString("challenges and solutions, teamwork and role.\n")
		if r := in.Resume; r != nil {
			writeList(&b, "Projects", headOf(r.Projects, profileItemLimit))
			writeList(&b, "Work experience", headOf(r.Experience, profileItemLimit))
		}
	case StageTechnical:
		b.WriteString("Assess core technical ability required by the role: fundamentals, ")
		b.WriteString("system design and architecture, depth and breadth.\n")
		if j := in.Job; j != nil {
			if len(j.Keywords) > 0 {
				fmt.Fprintf(&b, "Key technologies: %s\n", strings.Join(j.Keywords, ", "))
			}
			writeList(&b, "Requirements", headOf(j.Requirements, profileItemLimit))
		}
	default:
		return ""
	}
	return b.String()
}

func difficultySection(in DirectiveInput) string {
	if in.Stage != StageTechnical || !in.Level.Valid() {
		return ""
	}
	info := in.Level.Info()
	var b strings.Builder
	fmt.Fprintf(&b, "Level %s (%s): %s.\n", in.Level, info.Name, info.Description)
	fmt.Fprintf(&b, "Target audience: %s.\n", info.TargetAudience)
	fmt.Fprintf(&b, "Example keywords: %s.", strings.Join(info.Keywords, ", "))
	if in.Focus != "" {
		fmt.Fprintf(&b, "\nSuggested focus: %s.", in.Focus)
	}
	return b.String()
}

func referenceSection(in DirectiveInput) string {
	var b strings.Builder
	for i, q := range headOf(in.References, maxReferences) {
		if q = strings.TrimSpace(q); q == "" {
			continue
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	return b.String()
}

func historySection(in DirectiveInput) string {
	var b strings.Builder
	for _, t := range lastTurns(in.History, historyTurns) {
		fmt.Fprintf(&b, "Q%d [%s]: %s\n", t.Index, t.Stage, t.Question)
		fmt.Fprintf(&b, "A%d (score %.2f): %s\n", t.Index, t.Score, t.Answer)
	}
	return b.String()
}

func evidenceSection(in DirectiveInput) string {
	var b strings.Builder
	for _, t := range in.Evidence {
		fmt.Fprintf(&b, "- %s\n", t)
	}
	if len(in.RecentEntities) > 0 {
		fmt.Fprintf(&b, "Recently mentioned: %s\n", strings.Join(in.RecentEntities, ", "))
	}
	if len(in.ActiveEntities) > 0 {
		fmt.Fprintf(&b, "Active topics: %s\n", strings.Join(in.ActiveEntities, ", "))
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

func headOf(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
