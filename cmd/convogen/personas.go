package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/neo/convogen/internal/logging"
	"github.com/neo/convogen/internal/persona"
	"github.com/spf13/cobra"
)

var (
	personasPrompt     string
	personasPromptFile string
	personasCount      int
	personasOutputDir  string
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Derive customer personas from a scenario description",
	Long: `Generate a set of customer personas from a free-text scenario prompt.
The set is written as personas.json inside a timestamped directory, alongside
a metadata file recording the originating prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		prompt := personasPrompt
		if personasPromptFile != "" {
			data, err := os.ReadFile(personasPromptFile)
			if err != nil {
				return fmt.Errorf("failed to read prompt file: %v", err)
			}
			prompt = strings.TrimSpace(string(data))
		}
		if prompt == "" {
			return fmt.Errorf("a scenario prompt is required (--prompt or --prompt-file)")
		}

		gen, err := persona.NewGenerator(cfg.OpenAIAPIKey, cfg.PersonaModel, cfg.Temperature, cfg.MaxPersonas)
		if err != nil {
			return fmt.Errorf("failed to create persona generator: %v", err)
		}

		set, err := gen.Generate(cmd.Context(), prompt, personasCount)
		if err != nil {
			return fmt.Errorf("persona generation failed: %v", err)
		}

		path, err := persona.SaveSet(set, personasOutputDir, prompt)
		if err != nil {
			return fmt.Errorf("failed to save personas: %v", err)
		}

		logging.LogGenerationEvent("personas_generated", map[string]interface{}{
			"count": len(set.Personas),
			"path":  path,
		})
		fmt.Printf("Generated %d personas: %s\n", len(set.Personas), path)
		return nil
	},
}

func init() {
	personasCmd.Flags().StringVar(&personasPrompt, "prompt", "", "scenario description to derive personas from")
	personasCmd.Flags().StringVar(&personasPromptFile, "prompt-file", "", "file containing the scenario description")
	personasCmd.Flags().IntVarP(&personasCount, "count", "n", 5, "number of personas to generate")
	personasCmd.Flags().StringVarP(&personasOutputDir, "output", "o", "personas", "base directory for persona sets")
	rootCmd.AddCommand(personasCmd)
}
