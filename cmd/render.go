package cmd

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/jsphweid/songreplay/constants"
	"github.com/jsphweid/songreplay/file"
	"github.com/jsphweid/songreplay/render"
	"github.com/jsphweid/songreplay/replay"
	"github.com/jsphweid/songreplay/util"
	"github.com/pkg/errors"
	"github.com/remeh/sizedwaitgroup"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	renderFlags    arrangeFlags
	renderOut      string
	renderParallel int
	renderMax      int
	renderClean    bool
)

func init() {
	renderFlags.register(renderCmd)
	renderCmd.Flags().StringVar(&renderOut, "out", constants.GetOutDir(), "directory the WAV files go to")
	renderCmd.Flags().IntVar(&renderParallel, "parallel", runtime.NumCPU(), "songs rendered at once")
	renderCmd.Flags().IntVar(&renderMax, "max", 0, "render at most this many songs per path, 0 for all")
	renderCmd.Flags().BoolVar(&renderClean, "clean", false, "empty the output directory first")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render PATH...",
	Short: "Renders songs to WAV",
	Long: `Renders songs to WAV with the SoundFont in SOUNDFONT_PATH. Directories are
searched for sheets and MIDI files.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := renderFlags.options()
		if err != nil {
			return err
		}
		var paths []string
		for _, arg := range args {
			paths = append(paths, util.GatherAllSongPaths(arg, renderMax)...)
		}
		if len(paths) == 0 {
			return errors.New("no songs found")
		}

		if renderClean {
			util.RecreateOutputDir(renderOut)
		} else if err := os.MkdirAll(renderOut, 0777); err != nil {
			return errors.Wrap(err, "could not create output dir")
		}

		sf, err := render.LoadSoundFont(constants.GetSoundFontPath())
		if err != nil {
			return err
		}
		return renderAll(render.New(sf, log), file.CreateFileNumMap(paths), opts)
	},
}

func renderAll(r *render.Renderer, files file.FileNumToSongPath, opts replay.Options) error {
	start := time.Now()
	var mu sync.Mutex
	var errs error
	var total int64

	wg := sizedwaitgroup.New(util.Max(renderParallel, 1))
	for _, num := range files.Nums() {
		wg.Add()
		go func(num uint32) {
			defer wg.Done()
			size, err := renderOne(r, files[num], files.OutputPath(renderOut, num, ".wav"), opts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, errors.Wrapf(err, "could not render %s", files[num]))
				return
			}
			total += size
		}(num)
	}
	wg.Wait()

	log.Info("rendered",
		zap.Int("songs", len(files)-len(multierr.Errors(errs))),
		zap.String("size", humanize.Bytes(uint64(total))),
		zap.Stringer("took", durafmt.Parse(time.Since(start)).LimitFirstN(2)))
	return errs
}

func renderOne(r *render.Renderer, path, out string, opts replay.Options) (int64, error) {
	song, err := LoadSong(path)
	if err != nil {
		return 0, err
	}
	a, err := replay.Arrange(song, opts, nil)
	if err != nil {
		return 0, err
	}
	left, right, err := r.Render(a.Timeline, a.Channels)
	if err != nil {
		return 0, err
	}
	size, err := render.WriteWAVFile(out, render.MixPCM(left, right))
	if err != nil {
		return 0, err
	}
	log.Info("wrote",
		zap.String("path", out),
		zap.String("size", humanize.Bytes(uint64(size))),
		zap.Stringer("length", durafmt.Parse(time.Duration(len(left))*time.Second/constants.SampleRate).LimitFirstN(2)))
	return size, nil
}
