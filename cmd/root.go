package cmd

import (
	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logLevel string
	log      = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:          "songreplay",
	Short:        "Plays lead sheets and MIDI files",
	Long:         `Plays lead sheets and MIDI files on MIDI ports and websockets, and renders them to WAV and SMF.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := logger.New(logLevel)
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", constants.GetLogLevel(), "debug, info, warn or error")
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
