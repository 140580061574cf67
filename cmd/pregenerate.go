package cmd

import (
	"career_path_backend/internal/app"
	"career_path_backend/internal/service"
	"fmt"

	"github.com/spf13/cobra"
)

var pregenerateCmd = &cobra.Command{
	Use:   "pregenerate",
	Short: "为职业路线的所有步骤预生成测验",
	Long:  "顺序生成指定职业路线每一步的测验，已存在的步骤跳过，单步失败不影响其他步骤。",
	RunE: func(cmd *cobra.Command, args []string) error {
		career, _ := cmd.Flags().GetString("career")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.ForceMigrate = true

		application, err := app.NewApp(cfg)
		if err != nil {
			return err
		}
		defer application.Close()

		summary, err := application.Services.AssessmentCache.PreGenerate(cmd.Context(), career)
		if err != nil {
			return err
		}
		printSummary(cmd, summary)

		if len(summary.Failed) > 0 {
			return fmt.Errorf("%d step(s) failed, rerun to retry", len(summary.Failed))
		}
		return nil
	},
}

func init() {
	pregenerateCmd.Flags().String("career", "", "职业名称，例如 \"Data Scientist\"")
	_ = pregenerateCmd.MarkFlagRequired("career")
}

func printSummary(cmd *cobra.Command, s *service.BatchSummary) {
	cmd.Printf("%s (roadmap %d)\n", s.Career, s.RoadmapID)
	cmd.Printf("  generated: %v\n", s.Generated)
	cmd.Printf("  skipped:   %v\n", s.Skipped)
	for _, f := range s.Failed {
		cmd.Printf("  failed:    step %d: %s\n", f.Step, f.Reason)
	}
}
