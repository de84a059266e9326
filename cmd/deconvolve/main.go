// Command deconvolve reads a raw VBI sample capture and writes recovered
// Teletext packets (42-byte t42 records) to stdout.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/doismellburning/teletext/teletext"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var (
		profileName = pflag.String("profile", "bt8x8_pal", "sample geometry profile")
		configFile  = pflag.String("config-file", "", "YAML overrides layered onto --profile")
		start       = pflag.Int("start", 0, "first line number to read")
		stop        = pflag.Int("stop", 0, "exclusive last line number (0 = unbounded)")
		step        = pflag.Int("step", 1, "lines to advance between reads")
		limit       = pflag.Int("limit", 0, "maximum lines to decode (0 = unbounded)")
		workers     = pflag.Int("workers", 4, "concurrent decode workers")
		unordered   = pflag.Bool("unordered", false, "emit packets as soon as decoded, not in capture order")
		extraRoll   = pflag.Int("extra-roll", 0, "fine bit-grid adjustment applied before every decode")
		magazines   = pflag.IntSlice("mag", nil, "restrict output to these magazines (default: all)")
		rows        = pflag.IntSlice("row", nil, "restrict output to these rows (default: all)")
		rejectLog   = pflag.String("reject-log", "", "strftime pattern for a diagnostic dump of rejected lines")
		quiet       = pflag.Bool("quiet", false, "suppress the periodic throughput log")
	)
	pflag.Parse()

	cfg, err := teletext.ProfileByName(*profileName)
	if err != nil {
		return err
	}
	if *configFile != "" {
		cfg, err = teletext.LoadConfigOverride(cfg, *configFile)
		if err != nil {
			return err
		}
	}

	args := pflag.Args()
	var in io.ReadSeeker
	if len(args) == 0 || args[0] == "-" {
		return fmt.Errorf("deconvolve: a seekable input file is required (stdin cannot be seeked)")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	in = f

	var rejectPattern *strftime.Strftime
	if *rejectLog != "" {
		rejectPattern, err = strftime.New(*rejectLog)
		if err != nil {
			return fmt.Errorf("deconvolve: bad --reject-log pattern: %w", err)
		}
	}

	src, err := teletext.NewLineSource(in, &cfg,
		teletext.WithStart(*start), teletext.WithStop(*stop),
		teletext.WithStep(*step), teletext.WithLimit(*limit))
	if err != nil {
		return err
	}

	matcher := teletext.NewPatternMatcher(&cfg)

	var monitor *teletext.SpeedMonitor
	if !*quiet {
		monitor = teletext.NewSpeedMonitor(log.Default())
	}

	pool := teletext.NewPool(&cfg, matcher,
		teletext.WithWorkers(*workers),
		teletext.WithOrdered(!*unordered),
		teletext.WithFilters(teletext.NewIntSet(*magazines...), teletext.NewIntSet(*rows...)),
		teletext.WithExtraRoll(*extraRoll),
		teletext.WithSpeedMonitor(monitor))

	jobs := make(chan teletext.Job)
	go func() {
		defer close(jobs)
		for {
			data, ordinal, err := src.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				log.Error("line read failed", "err", err)
				return
			}
			jobs <- teletext.Job{Ordinal: ordinal, Data: data}
		}
	}()

	out := os.Stdout
	for res := range pool.Run(context.Background(), jobs) {
		if res.Err != nil {
			logReject(rejectPattern, res)
			continue
		}
		body := res.Packet.ToBytes()
		if _, err := out.Write(body[:]); err != nil {
			return err
		}
	}

	return nil
}

func logReject(pattern *strftime.Strftime, res teletext.Result) {
	if pattern == nil {
		return
	}
	path := pattern.FormatString(time.Now())
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Error("reject-log open failed", "err", err)
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "line %d: %v\n", res.Ordinal, res.Err)
}
