package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/neo/convogen/internal/agent"
	"github.com/neo/convogen/internal/config"
	"github.com/neo/convogen/internal/conversation"
	"github.com/neo/convogen/internal/database"
	"github.com/neo/convogen/internal/export"
	"github.com/neo/convogen/internal/generator"
	"github.com/neo/convogen/internal/knowledge"
	"github.com/neo/convogen/internal/logging"
	"github.com/neo/convogen/internal/persona"
	"github.com/neo/convogen/internal/types"
	"github.com/spf13/cobra"
)

var (
	generatePersonasFile string
	generateCount        int
	generateSkipArchive  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a batch of support conversations",
	Long: `Generate simulated customer support conversations for every persona in
the persona file. Conversations are written as JSON files into a timestamped
run directory and archived in the sqlite database.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if generatePersonasFile != "" {
			cfg.PersonasPath = generatePersonasFile
		}
		if generateCount > 0 {
			cfg.NumConversations = generateCount
		}

		set, err := persona.LoadSet(cfg.PersonasPath)
		if err != nil {
			return fmt.Errorf("failed to load personas: %v", err)
		}

		store := knowledge.NewStore()
		if _, statErr := os.Stat(cfg.KnowledgeBasePath); statErr == nil {
			store, err = knowledge.Load(cfg.KnowledgeBasePath)
			if err != nil {
				return fmt.Errorf("failed to load knowledge base: %v", err)
			}
		} else {
			logging.Warn("Knowledge base path not found, representative runs ungrounded", map[string]interface{}{
				"path": cfg.KnowledgeBasePath,
			})
		}

		customerLLM, err := agent.NewClient(agent.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.CustomerModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxResponseTokens,
			MaxRetries:  cfg.MaxRetries,
			Timeout:     cfg.RequestTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create customer client: %v", err)
		}
		repLLM, err := agent.NewClient(agent.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.RepresentativeModel,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxResponseTokens,
			MaxRetries:  cfg.MaxRetries,
			Timeout:     cfg.RequestTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to create representative client: %v", err)
		}

		representative := agent.NewRepresentativeAgent(repLLM, store, cfg.KnowledgeMaxItems)
		newCustomer := func(p persona.Persona) conversation.CustomerSpeaker {
			return agent.NewCustomerAgent(customerLLM, p)
		}

		runner := generator.NewRunner(newCustomer, representative, generator.Options{
			MaxTurns:           cfg.MaxTurns,
			Parallelism:        cfg.Parallelism,
			ConversationsTotal: cfg.NumConversations,
			Escalation:         conversation.NewKeywordEscalationDetector(cfg.EscalationPhrases, cfg.EnableEscalation),
			Satisfaction:       conversation.NewKeywordSatisfactionDetector(cfg.SatisfactionPhrases),
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		conversations, runErr := runner.Run(ctx, set.Personas)
		if runErr != nil {
			logging.Warn("Generation interrupted", map[string]interface{}{"error": runErr.Error()})
		}
		if len(conversations) == 0 {
			return fmt.Errorf("no conversations generated")
		}

		personaNames := make([]string, 0, len(set.Personas))
		for _, p := range set.Personas {
			personaNames = append(personaNames, p.Name)
		}
		runDir, err := export.WriteRun(conversations, cfg.OutputDir, export.RunMetadata{
			Personas:      personaNames,
			MaxTurns:      cfg.MaxTurns,
			CustomerModel: cfg.CustomerModel,
			RepModel:      cfg.RepresentativeModel,
		})
		if err != nil {
			return fmt.Errorf("failed to write run output: %v", err)
		}

		if !generateSkipArchive {
			if err := archiveRun(cfg, conversations); err != nil {
				return err
			}
		}

		summary := generator.Summarize(conversations)
		logging.Info("Generation run complete", map[string]interface{}{
			"run_dir":   runDir,
			"total":     summary.Total,
			"resolved":  summary.ByStatus[types.StatusResolved],
			"escalated": summary.ByStatus[types.StatusEscalated],
			"failed":    summary.ByStatus[types.StatusFailed],
		})
		fmt.Printf("Generated %d conversations in %s (resolved %d, escalated %d, failed %d)\n",
			summary.Total, runDir, summary.ByStatus[types.StatusResolved],
			summary.ByStatus[types.StatusEscalated], summary.ByStatus[types.StatusFailed])
		return nil
	},
}

func archiveRun(cfg *config.Config, conversations []*conversation.Conversation) error {
	db, err := database.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open conversation archive: %v", err)
	}
	defer db.Close()

	for _, conv := range conversations {
		if err := db.SaveConversation(conv); err != nil {
			return fmt.Errorf("failed to archive conversation %s: %v", conv.ID, err)
		}
	}
	return nil
}

func init() {
	generateCmd.Flags().StringVarP(&generatePersonasFile, "personas", "p", "", "persona file (overrides CG_PERSONAS_PATH)")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 0, "total conversations to generate (overrides CG_NUM_CONVERSATIONS)")
	generateCmd.Flags().BoolVar(&generateSkipArchive, "skip-archive", false, "skip writing conversations to the sqlite archive")
	rootCmd.AddCommand(generateCmd)
}
