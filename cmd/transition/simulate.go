package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/velist/gametest/internal/domain/power"
	"github.com/velist/gametest/internal/engine"
	"github.com/velist/gametest/internal/events"
	"github.com/velist/gametest/internal/narrative"
	"github.com/velist/gametest/internal/platform/config"
	"github.com/velist/gametest/internal/platform/i18n"
	"github.com/velist/gametest/internal/platform/logger"
)

type simOptions struct {
	name       string
	lang       string
	ticks      int
	speed      float64
	every      int
	powers     []string
	tuningPath string
	llm        bool
}

func simulateCmd() *cobra.Command {
	var o simOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a session headless on a simulated clock and print a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulate(cmd, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.name, "name", "Observer", "god name")
	f.StringVar(&o.lang, "lang", "en", "narration language")
	f.IntVar(&o.ticks, "ticks", 6000, "maximum number of ticks")
	f.Float64Var(&o.speed, "speed", 1, "time speed")
	f.IntVar(&o.every, "every", 0, "intervene every N ticks (0 disables)")
	f.StringSliceVar(&o.powers, "powers", []string{string(power.ResourceRain)}, "powers cast in rotation")
	f.StringVar(&o.tuningPath, "tuning", "", "YAML tuning file")
	f.BoolVar(&o.llm, "llm", false, "narrate with the configured LLM instead of static content")
	return cmd
}

func runSimulate(cmd *cobra.Command, o simOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.NewLoggerTo(cmd.ErrOrStderr())

	tuning, err := config.LoadTuning(o.tuningPath)
	if err != nil {
		return err
	}
	var provider narrative.Provider = narrative.Static{}
	if o.llm {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if provider, err = buildNarrator(cfg, log.Named("NARRATOR")); err != nil {
			return err
		}
	}

	eventLog := events.NewEventLog()
	session := engine.NewSession(tuning, i18n.Parse(o.lang))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	step := func(fx engine.Effects) {
		for _, ev := range engine.Resolve(ctx, session, provider, fx, now) {
			eventLog.Append(ev)
		}
	}
	apply := func(a engine.Action) {
		fx, err := session.Apply(a, now)
		if err != nil {
			log.Warnf("%s refused: %v", a.Type, err)
			return
		}
		step(fx)
	}

	apply(engine.Action{Type: engine.ActionStart, Name: o.name})
	if o.speed != 1 {
		apply(engine.Action{Type: engine.ActionSetSpeed, Speed: o.speed})
	}

	ticks := 0
	cast := 0
	for ; ticks < o.ticks && session.Phase() == engine.PhasePlaying; ticks++ {
		now = now.Add(tuning.TickInterval())
		step(session.Tick(now))
		if o.every > 0 && len(o.powers) > 0 && (ticks+1)%o.every == 0 {
			apply(engine.Action{Type: engine.ActionIntervene, Power: power.ID(o.powers[cast%len(o.powers)])})
			cast++
		}
	}

	snap := session.Snapshot(now)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Simulated %s ticks (%s of game time)\n", humanize.Comma(int64(ticks)), time.Duration(ticks)*tuning.TickInterval())
	fmt.Fprintf(out, "Phase:         %s\n", snap.Phase)
	fmt.Fprintf(out, "Era:           %s\n", snap.EraLabel)
	fmt.Fprintf(out, "Karma:         %d\n", snap.God.Karma)
	fmt.Fprintf(out, "Population:    %s\n", humanize.Commaf(float64(int64(snap.God.Resources.Population))))
	fmt.Fprintf(out, "Food:          %s\n", humanize.Commaf(float64(int64(snap.God.Resources.Food))))
	fmt.Fprintf(out, "Knowledge:     %s\n", humanize.Commaf(float64(int64(snap.God.Resources.Knowledge))))
	fmt.Fprintf(out, "Interventions: %d (%d attempted)\n", snap.God.InterventionCount, cast)
	fmt.Fprintf(out, "Era advances:  %d\n", len(eventLog.GetByType(events.EventTypeEraAdvanced)))
	fmt.Fprintf(out, "Events:        %s\n", humanize.Comma(int64(eventLog.Len())))
	if snap.Judgement != "" {
		fmt.Fprintf(out, "Judgement:     %s\n", snap.Judgement)
		fmt.Fprintf(out, "Rarity:        %s\n", snap.Rarity)
		fmt.Fprintf(out, "Legacy code:   %s\n", snap.LegacyCode)
	}
	for _, line := range snap.Logs {
		fmt.Fprintf(out, "  %s\n", line)
	}
	return nil
}
