// Package cli provides the command-line interface for docchunk.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/docchunk-go/internal/checkpoint"
	"github.com/raphaelgruber/docchunk-go/internal/chunker"
	"github.com/raphaelgruber/docchunk-go/internal/config"
	"github.com/raphaelgruber/docchunk-go/internal/convert"
	"github.com/raphaelgruber/docchunk-go/internal/events"
	"github.com/raphaelgruber/docchunk-go/internal/heartbeat"
	"github.com/raphaelgruber/docchunk-go/internal/models"
	"github.com/raphaelgruber/docchunk-go/internal/output"
	"github.com/raphaelgruber/docchunk-go/internal/partition"
	"github.com/raphaelgruber/docchunk-go/internal/pdf"
	"github.com/raphaelgruber/docchunk-go/internal/pipeline"
	"github.com/raphaelgruber/docchunk-go/internal/telemetry"
)

// Version is set at build time.
var Version = "0.1.0"

// rootCmd is the single docchunk command. All options are positional so the
// supervising process can exec it without flag parsing on its side.
var rootCmd = &cobra.Command{
	Use: "docchunk <input_dir> <output_file> [max_tokens] [merge_peers] " +
		"[formula] [picture_classification] [picture_description] [code_enrichment] " +
		"[ocr] [table_structure] [picture_description_max_tokens] [resume] " +
		"[vision_batch_size] [processing_batch_size]",
	Short: "Convert a directory of documents into token-bounded chunks",
	Long: `Docchunk converts every supported document in a directory to text, splits
the text into token-bounded chunks, and writes all chunks to a single JSON
output file.

The process speaks a strict protocol: newline-delimited JSON progress
events on stderr, one final JSON result object on stdout, and nothing
else on either stream. Boolean options accept the literal "true" in any
case; every other value is false.`,
	Version:       Version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

// Execute runs the CLI. A non-nil error means a usage error; the caller
// exits non-zero. Job failures are reported through the stdout result
// object with a zero exit instead.
func Execute() error {
	return rootCmd.Execute()
}

func run(cmd *cobra.Command, args []string) error {
	if len(args) < 2 {
		printResult(models.Result{
			Success: false,
			Error:   "usage: docchunk <input_dir> <output_file> [options...]",
		})
		return fmt.Errorf("expected at least 2 arguments, got %d", len(args))
	}

	jobCfg, warnings := models.ParseJobArgs(args[0], args[1], args[2:])
	procCfg := config.Load()

	runID := strings.SplitN(uuid.NewString(), "-", 2)[0]
	emitter := events.NewEmitter(os.Stderr, runID)

	logger, cleanup := config.SetupLogger(procCfg.LogFile, procCfg.LogLevel, emitter)
	slog.SetDefault(logger)
	defer func() {
		if err := cleanup(); err != nil {
			emitter.Emit(events.Warning(fmt.Sprintf("closing log file: %v", err)))
		}
	}()

	for _, w := range warnings {
		emitter.Emit(events.Warning(w))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	emitter.Emit(events.Info(fmt.Sprintf("docchunk %s starting (run %s)", Version, runID)))
	announceEnrichments(emitter, jobCfg)

	printResult(runJob(ctx, jobCfg, procCfg, emitter))
	return nil
}

// runJob wires the pipeline components and executes the job.
func runJob(ctx context.Context, jobCfg models.JobConfig, procCfg config.Config, emitter *events.Emitter) models.Result {
	chk, err := chunker.New(chunker.Config{
		MaxTokens:  jobCfg.MaxTokens,
		MergePeers: jobCfg.MergePeers,
	})
	if err != nil {
		return models.Result{Success: false, Error: fmt.Sprintf("initialize chunker: %v", err)}
	}

	probe := pdf.NewProbe()
	planner := partition.NewPlanner(partition.Config{
		// Splitting only pays off when the memory-hungry picture
		// description enrichment is on.
		Enabled:   jobCfg.EnablePictureDescription,
		Threshold: procCfg.Tuning.PartitionThreshold,
		RangeSize: procCfg.Tuning.PartitionRangeSize,
	}, probe)

	hb := heartbeat.New(heartbeat.Config{
		Interval:       procCfg.Tuning.HeartbeatInterval,
		SecondsPerPage: procCfg.Tuning.SecondsPerPage,
	}, emitter, telemetry.NewSampler())

	driver := pipeline.New(jobCfg, pipeline.Deps{
		Converter: convert.New(convert.OptionsFromJob(jobCfg)),
		Chunker:   chunkerAdapter{chk},
		Prober:    probe,
		Planner:   planner,
		Heartbeat: hb,
		Sink:      output.NewWriter(jobCfg.OutputFile),
		Store:     checkpoint.NewStore(),
		Emitter:   emitter,
	})
	return driver.Run(ctx)
}

// announceEnrichments reports every enrichment option's state, one event
// per option, so the supervising process can show the run's settings
// before the first document starts.
func announceEnrichments(emitter *events.Emitter, cfg models.JobConfig) {
	options := []struct {
		name    string
		enabled bool
	}{
		{"formula enrichment", cfg.EnableFormula},
		{"picture classification", cfg.EnablePictureClassification},
		{"picture description", cfg.EnablePictureDescription},
		{"code enrichment", cfg.EnableCodeEnrichment},
		{"ocr", cfg.EnableOCR},
		{"table structure", cfg.EnableTableStructure},
	}
	for _, opt := range options {
		state := "disabled"
		if opt.enabled {
			state = "enabled"
		}
		emitter.Emit(events.Info(fmt.Sprintf("%s: %s", opt.name, state)))
	}
	emitter.Emit(events.Info(fmt.Sprintf("chunking with max_tokens=%d, merge_peers=%t",
		cfg.MaxTokens, cfg.MergePeers)))
}

// chunkerAdapter narrows the concrete chunker to the pipeline interface.
type chunkerAdapter struct {
	c *chunker.Chunker
}

func (a chunkerAdapter) Chunk(doc *models.Document) pipeline.ChunkStream {
	return a.c.Chunk(doc)
}

// printResult writes the single result object to stdout. This is the only
// write to stdout in the whole process.
func printResult(res models.Result) {
	data, err := json.Marshal(res)
	if err != nil {
		fmt.Println(`{"success": false, "error": "failed to serialize result"}`)
		return
	}
	fmt.Println(string(data))
}
