package cmd

import (
	"github.com/spf13/cobra"

	"audiofx/config"
	"audiofx/demo"
	"audiofx/logger"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Generate demo audio files in the upload directory",
	Long: `Generate a set of synthetic demo tracks (band-style and electronic)
so separation and effects can be tested without real recordings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger.Init(logger.Config{
			Level:      logger.LogLevel(cfg.LogLevel),
			OutputPath: cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		})
		return demo.GenerateAll(cfg.UploadDir)
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
