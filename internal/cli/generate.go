package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"pdf-quiz-service/internal/app"
	"pdf-quiz-service/internal/config"
	"pdf-quiz-service/internal/logger"
)

// NewGenerateCmd generates a quiz for a local PDF and prints it as JSON.
func NewGenerateCmd(configPath *string) *cobra.Command {
	var (
		numQuestions int
		model        string
		showRaw      bool
	)
	cmd := &cobra.Command{
		Use:   "generate <file.pdf>",
		Short: "Generate a quiz for a local PDF and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			// keep stdout for the quiz
			log := logger.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)

			workDir, err := os.MkdirTemp("", "pdf-quiz-*")
			if err != nil {
				return err
			}
			defer os.RemoveAll(workDir)

			service, err := newService(cfg, backends{}, workDir, log)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			sessionID := uuid.NewString()
			if _, err := service.Upload(ctx, sessionID, app.Upload{
				Filename: filepath.Base(args[0]),
				Size:     info.Size(),
				Body:     f,
			}); err != nil {
				return err
			}
			res, err := service.Generate(ctx, sessionID, app.GenerateRequest{NumQuestions: numQuestions, Model: model})
			if err != nil {
				return err
			}
			for _, notice := range res.Notices {
				fmt.Fprintln(cmd.ErrOrStderr(), "notice:", notice)
			}

			out := map[string]any{
				"model": res.State.Model,
				"quiz":  res.State.Quiz,
			}
			if res.ParseError != "" {
				out["parseError"] = res.ParseError
			}
			if showRaw {
				out["rawResponse"] = res.RawResponse
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().IntVarP(&numQuestions, "num-questions", "n", 0, "number of questions (default from config)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model id or display name (default from config)")
	cmd.Flags().BoolVar(&showRaw, "raw", false, "include the raw model response")
	return cmd
}
