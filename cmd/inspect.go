package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/hako/durafmt"
	"github.com/jsphweid/songreplay/model"
	"github.com/jsphweid/songreplay/replay"
	"github.com/spf13/cobra"
)

var (
	inspectFlags  arrangeFlags
	inspectEvents bool
)

func init() {
	inspectFlags.register(inspectCmd)
	inspectCmd.Flags().BoolVar(&inspectEvents, "events", false, "print every timeline entry")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Prints a song and its timeline",
	Long:  `Prints the headers, voices and channels of a song, and optionally its compiled timeline.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		song, err := LoadSong(args[0])
		if err != nil {
			return err
		}
		opts, err := inspectFlags.options()
		if err != nil {
			return err
		}
		a, err := replay.Arrange(song, opts, nil)
		if err != nil {
			return err
		}
		inspect(cmd.OutOrStdout(), song, a, inspectEvents)
		return nil
	},
}

func inspect(w io.Writer, song *model.Song, a *replay.Arrangement, withEvents bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "title\t%s\n", song.Title)
	fmt.Fprintf(tw, "meter\t%s\n", song.TimeSigChanges.DefaultVal())
	fmt.Fprintf(tw, "key\t%s\n", song.KeySigChanges.DefaultVal())
	fmt.Fprintf(tw, "tempo\t%.4g eighths/min\n", song.Tempo8nPerMinChanges.DefaultVal())
	fmt.Fprintf(tw, "swing\t%s\n", song.SwingChanges.DefaultVal().Ratio)
	fmt.Fprintf(tw, "span\t%s to %s\n", song.Start8n(), song.End8n())
	fmt.Fprintf(tw, "chords\t%d\n", song.ChordChanges.Len())
	fmt.Fprintf(tw, "duration\t%s\n", durafmt.Parse(a.Timeline.Duration().Round(time.Millisecond)).LimitFirstN(2))
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(tw, "channel\tinstrument\tname\n")
	for _, c := range a.Channels {
		instrument := c.Instrument.String()
		if c.IsDrum {
			instrument = "drums"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ChannelNum, instrument, c.Name)
	}
	tw.Flush()

	if !withEvents {
		return
	}
	fmt.Fprintln(w)
	for _, entry := range a.Timeline.Entries() {
		for _, evt := range entry.Events {
			fmt.Fprintf(tw, "%s\t%s\n", entry.Time, evt)
		}
	}
	tw.Flush()
}
