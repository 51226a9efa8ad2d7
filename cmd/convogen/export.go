package main

import (
	"fmt"

	"github.com/neo/convogen/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportInputDir   string
	exportOutputFile string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Project a generation run into the evaluation format",
	Long: `Transform every conversation file in a run directory into a single
evaluation document. Representative messages become Assistant turns and
customer messages become Customer turns.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		if exportInputDir == "" {
			return fmt.Errorf("an input run directory is required (--input)")
		}

		n, err := export.WriteEvals(exportInputDir, exportOutputFile)
		if err != nil {
			return fmt.Errorf("export failed: %v", err)
		}

		fmt.Printf("Exported %d conversations to %s\n", n, exportOutputFile)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportInputDir, "input", "i", "", "run directory containing conversation files")
	exportCmd.Flags().StringVarP(&exportOutputFile, "output", "o", "evals.json", "output file for the evaluation document")
	rootCmd.AddCommand(exportCmd)
}
