package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/ai"
	"github.com/spigell/hh-interviewer/internal/candidate"
	"github.com/spigell/hh-interviewer/internal/filtering"
	"github.com/spigell/hh-interviewer/internal/headhunter"
	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/knowledge"
	"github.com/spigell/hh-interviewer/internal/logger"
	"github.com/spigell/hh-interviewer/internal/metrics"
	"github.com/spigell/hh-interviewer/internal/questionbank"
	"github.com/spigell/hh-interviewer/internal/review"
	"github.com/spigell/hh-interviewer/internal/secrets"
)

const defaultSearchPages = 1

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an interview rehearsal in the console",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("resume", "r", "", "resume profile file (YAML or JSON)")
	runCmd.Flags().String("resume-id", "", "id of your hh.ru resume, needs a token")
	runCmd.Flags().String("job", "", "job description profile file (YAML or JSON)")
	runCmd.Flags().String("vacancy", "", "hh.ru vacancy id to use as the job description")
	runCmd.Flags().String("search", "", "search hh.ru and pick the vacancy interactively")
	runCmd.Flags().StringP("track", "t", "", "question bank track. Asked interactively when unset")
	runCmd.Flags().StringP("report", "o", "", "write the JSON report to this file")
	runCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")

	for key, flag := range map[string]string{
		"resume.file":    "resume",
		"resume.hh-id":   "resume-id",
		"job.file":       "job",
		"job.vacancy-id": "vacancy",
		"track":          "track",
		"report.file":    "report",
		"metrics-addr":   "metrics-addr",
	} {
		viper.BindPFlag(key, runCmd.Flags().Lookup(flag))
	}
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	if text, _ := cmd.Flags().GetString("search"); strings.TrimSpace(text) != "" {
		viper.Set("job.search.text", text)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the hh-interviewer", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	masked := *config.AI
	masked.APIKey = ""
	pretty, _ := json.MarshalIndent(masked, "", "  ")
	logger.Debug(fmt.Sprintf("starting with ai config: \n %s", pretty))

	hh, err := newHeadhunter(config, logger)
	if err != nil {
		logger.Fatal("creating hh.ru client", zap.Error(err))
	}

	resume, err := resumeSource(config, hh).Resume(ctx)
	if err != nil {
		logger.Fatal("loading resume", zap.Error(err))
	}

	jobs, err := jobSource(ctx, config, hh, resume, logger)
	if err != nil {
		logger.Fatal("choosing a job description", zap.Error(err))
	}
	job, err := jobs.JobDescription(ctx)
	if err != nil {
		logger.Fatal("loading job description", zap.Error(err))
	}

	bank, err := loadBank(config.Bank, logger)
	if err != nil {
		logger.Fatal("loading question bank", zap.Error(err))
	}

	track, err := chooseTrack(config.Track, bank)
	if err != nil {
		logger.Fatal("choosing a track", zap.Error(err))
	}
	if !bank.HasTrack(track) {
		logger.Warn("track has no bank questions, built-in fallbacks will be used", zap.String("track", track))
	}

	gen, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating text generator", zap.Error(err))
	}

	recorder := metrics.NewRecorder()
	if config.MetricsAddr != "" {
		shutdown := serveMetrics(config.MetricsAddr, recorder, logger)
		defer shutdown()
	}

	graph := knowledge.Build(resume, job)
	logger.Info("knowledge graph built",
		zap.Int("triplets", len(graph.Triplets())),
		zap.Strings("matched", graph.Matched()),
		zap.Strings("gaps", graph.SkillGaps()),
	)

	session := interview.NewSession(interview.SessionDeps{
		Track:    track,
		Resume:   resume,
		Job:      job,
		Bank:     bank,
		Triplets: graph,
		Focus:    graph,
		Logger:   logger,
	})
	engine := interview.NewEngine(session, interview.EngineDeps{
		Generator:    gen,
		Evaluator:    interview.NewGeneratorEvaluator(gen, logger, config.AI.MaxLogLength),
		Metrics:      recorder,
		Logger:       logger,
		MaxLogLength: config.AI.MaxLogLength,
	})

	fmt.Printf("Interview for %s (%s track). Type %s to finish early.\n", job.Position, track, endCommand)

	if err := engine.Conduct(ctx, consoleTranscriber{}, &consoleSynthesizer{w: os.Stdout}); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("interview stopped", zap.Error(err))
	}

	report := review.Build(session.Snapshot(), graph)
	renderers := review.Renderers{&review.TextRenderer{W: os.Stdout}}
	if config.Report.File != "" || config.Report.JSON {
		renderers = append(renderers, &review.JSONFileRenderer{Path: config.Report.File, Logger: logger})
	}

	// The interview context may be cancelled already; the report is still wanted.
	if err := renderers.Render(context.Background(), report); err != nil {
		logger.Fatal("rendering report", zap.Error(err))
	}
}

func newHeadhunter(config *Config, logger *zap.Logger) (*headhunter.Client, error) {
	var token string
	if tokenFile := strings.TrimSpace(config.TokenFile); tokenFile != "" {
		var err error
		token, err = secrets.Load(secrets.Source{
			Name: "headhunter token",
			File: tokenFile,
		})
		if err != nil {
			return nil, err
		}
	}

	hh := headhunter.New(logger, token)
	if config.UserAgent != "" {
		hh.UserAgent = config.UserAgent
	}
	return hh, nil
}

func resumeSource(config *Config, hh *headhunter.Client) interview.ResumeStore {
	switch {
	case config.Resume.File != "":
		return candidate.NewResumeFile(config.Resume.File)
	case config.Resume.ID != "":
		return headhunter.NewResumeStore(hh, config.Resume.ID)
	default:
		return resumeByTitle{hh: hh, title: config.Resume.Title}
	}
}

// resumeByTitle finds one of the user's resumes by its title.
type resumeByTitle struct {
	hh    *headhunter.Client
	title string
}

func (r resumeByTitle) Resume(ctx context.Context) (*candidate.Resume, error) {
	resumes, err := r.hh.GetMineResumes(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting mine resumes: %w", err)
	}

	selected := resumes.FindByTitle(r.title)
	if selected == nil {
		return nil, fmt.Errorf("resume %q not found, existing titles: %s", r.title, strings.Join(resumes.Titles(), ", "))
	}
	return headhunter.NewResumeStore(r.hh, selected.ID).Resume(ctx)
}

func jobSource(ctx context.Context, config *Config, hh *headhunter.Client, resume *candidate.Resume, logger *zap.Logger) (interview.JobDescriptionStore, error) {
	switch {
	case config.Job.File != "":
		return candidate.NewJobFile(config.Job.File), nil
	case config.Job.VacancyID != "":
		return headhunter.NewVacancyStore(hh, config.Job.VacancyID), nil
	}

	id, err := pickVacancy(ctx, config.Job, hh, resume, logger)
	if err != nil {
		return nil, err
	}
	return headhunter.NewVacancyStore(hh, id), nil
}

func pickVacancy(ctx context.Context, cfg *JobConfig, hh *headhunter.Client, resume *candidate.Resume, logger *zap.Logger) (string, error) {
	params := *cfg.Search
	if params.MaxPages == 0 {
		params.MaxPages = defaultSearchPages
	}

	logger.Info("starting the search", zap.String("search", params.Text))

	vacancies, err := hh.Search(ctx, &params)
	if err != nil {
		return "", err
	}

	steps := []filtering.Filter{
		filtering.NewExcludedEmployers(cfg.ExcludeEmployers),
		filtering.NewExcludeFile(cfg.ExcludeFile),
		filtering.NewSkillMatch(cfg.MinSkillMatches),
	}
	vacancies, err = filtering.Run(ctx, filtering.Deps{Logger: logger, Resume: resume}, steps, vacancies)
	if err != nil {
		return "", fmt.Errorf("filtering failed: %w", err)
	}
	if vacancies.Len() == 0 {
		return "", errors.New("no vacancies left after filters")
	}

	prompt := promptui.Select{
		Label: "Vacancy to rehearse for",
		Items: vacancies.Titles(),
		Size:  10,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return vacancies.Items[idx].ID, nil
}

func loadBank(cfg *BankConfig, logger *zap.Logger) (*questionbank.Bank, error) {
	opts := questionbank.Options{Seed: cfg.Seed, Logger: logger}
	if cfg.File != "" {
		return questionbank.Load(cfg.File, opts)
	}
	return questionbank.Default(opts)
}

func chooseTrack(track string, bank *questionbank.Bank) (string, error) {
	if track = strings.TrimSpace(track); track != "" {
		return track, nil
	}

	tracks := bank.Tracks()
	if len(tracks) == 1 {
		return tracks[0], nil
	}

	prompt := promptui.Select{
		Label: "Interview track",
		Items: tracks,
	}
	_, track, err := prompt.Run()
	return track, err
}

func newGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.Generator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = ai.ProviderGemini
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  provider + " api key",
		File:  cfg.APIKeyFile,
		Env:   strings.ToUpper(provider) + "_API_KEY",
		Value: cfg.APIKey,
	})
	// A local OpenAI compatible server does not need a key.
	if err != nil && !(provider == ai.ProviderOpenAI && cfg.BaseURL != "") {
		return nil, err
	}

	return ai.NewGenerator(ctx, ai.Config{
		Provider:     provider,
		APIKey:       apiKey,
		Model:        cfg.Model,
		BaseURL:      cfg.BaseURL,
		Temperature:  cfg.Temperature,
		MaxRetries:   cfg.MaxRetries,
		MaxLogLength: cfg.MaxLogLength,
	}, logger)
}
