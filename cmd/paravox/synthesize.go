package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ekisa-team/paravox/internal/batch"
	"github.com/ekisa-team/paravox/internal/config"
	"github.com/ekisa-team/paravox/internal/session"
)

func synthesizeCmd() *cobra.Command {
	var (
		input        string
		outDir       string
		voice        string
		exaggeration float64
		cfgWeight    float64
	)

	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Write one WAV file per paragraph of a text",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadAndValidate(flagConfigPath, flagSchemaPath)
			if err != nil {
				return err
			}

			text, err := readInput(input)
			if err != nil {
				return err
			}

			req := batch.GenerationRequest{
				Text:         text,
				Exaggeration: cfg.Generation.Exaggeration,
				CFGWeight:    cfg.Generation.CFGWeight,
			}
			if cmd.Flags().Changed("exaggeration") {
				req.Exaggeration = exaggeration
			}
			if cmd.Flags().Changed("cfg-weight") {
				req.CFGWeight = cfgWeight
			}
			if voice != "" {
				if req.VoiceReference, err = os.ReadFile(voice); err != nil {
					return fmt.Errorf("failed to read voice reference: %w", err)
				}
				req.VoiceReferenceName = filepath.Base(voice)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			rt, err := newRuntime(cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.models.LoadModelsFromConfig(cmd.Context(), cfg); err != nil {
				slog.Error("Failed to load models from config", "error", err)
			}

			sess := session.New()
			run, err := rt.tts.Generate(cmd.Context(), sess, req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, r := range run.Results {
				if !r.OK() {
					failed++
					fmt.Fprintf(out, "paragraph %d: %s\n", r.Index, r.Error)
					continue
				}

				path := filepath.Join(outDir, fmt.Sprintf("paragraph_%d_%s.wav", r.Index, sess.ID))
				if err := os.WriteFile(path, r.Audio, 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", path, err)
				}
				fmt.Fprintf(out, "paragraph %d: %s\n", r.Index, path)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d paragraphs failed", failed, len(run.Results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "-", "text file to read (- for stdin)")
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory for WAV files")
	cmd.Flags().StringVar(&voice, "voice", "", "reference audio to condition the voice")
	cmd.Flags().Float64Var(&exaggeration, "exaggeration", config.DefaultExaggeration, "emotion exaggeration (0.1-1.0)")
	cmd.Flags().Float64Var(&cfgWeight, "cfg-weight", config.DefaultCFGWeight, "classifier-free guidance weight (0.1-1.0)")

	return cmd
}
