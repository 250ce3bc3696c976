package cmd

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/hh-interviewer/internal/interview"
	"github.com/spigell/hh-interviewer/internal/logger"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Describe the question bank or sample reference questions from it",
	Run: func(cmd *cobra.Command, _ []string) {
		bank(cmd)
	},
}

func init() {
	rootCmd.AddCommand(bankCmd)

	bankCmd.Flags().String("file", "", "question bank file. The built-in bank is used when unset")
	bankCmd.Flags().StringP("track", "t", "", "sample questions of this track")
	bankCmd.Flags().StringP("level", "l", "B2", "difficulty level to sample: B1, B2 or B3")
	bankCmd.Flags().IntP("count", "n", 3, "number of questions to sample")

	viper.BindPFlag("bank.file", bankCmd.Flags().Lookup("file"))
}

func bank(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	b, err := loadBank(&BankConfig{File: viper.GetString("bank.file"), Seed: viper.GetUint64("bank.seed")}, logger)
	if err != nil {
		logger.Fatal("loading question bank", zap.Error(err))
	}

	track, _ := cmd.Flags().GetString("track")
	if track == "" {
		for _, s := range b.Summary() {
			fmt.Printf("%s: %d questions (B1 %d, B2 %d, B3 %d)\n", s.Track, s.Total,
				s.PerLevel[interview.LevelB1], s.PerLevel[interview.LevelB2], s.PerLevel[interview.LevelB3])
			if len(s.Categories) > 0 {
				fmt.Printf("  categories: %s\n", strings.Join(s.Categories, ", "))
			}
		}
		return
	}

	rawLevel, _ := cmd.Flags().GetString("level")
	level, err := interview.ParseLevel(rawLevel)
	if err != nil {
		logger.Fatal("parsing level", zap.Error(err))
	}
	count, _ := cmd.Flags().GetInt("count")

	if !b.HasTrack(track) {
		logger.Fatal("unknown track", zap.String("track", track), zap.Strings("tracks", b.Tracks()))
	}
	for i, q := range b.Reference(track, level, count) {
		fmt.Printf("%d. %s\n", i+1, q)
	}
}
