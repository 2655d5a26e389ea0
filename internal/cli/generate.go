package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/prodkit/composer/pkg/composition"
	"github.com/prodkit/composer/pkg/config"
	"github.com/prodkit/composer/pkg/render"
	"github.com/prodkit/composer/pkg/sync"
	"github.com/prodkit/composer/pkg/template"
)

// generateOpts holds the command-line flags for the generate command.
// Flags left unset fall back to the persisted settings file.
type generateOpts struct {
	templatePath     string
	primariesDir     string
	secondariesDir   string
	presentationsDir string
	outputDir        string
	extension        string
	override         bool
	unsharp          bool
	skipPresentation bool
	skipSecondary    bool
	upload           bool
	bucket           string
	noCache          bool
	plain            bool
}

// generateCommand creates the generate command, the batch renderer.
func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Render every composition of a template and asset pools",
		Long: `Generate loads a template, enumerates every valid composition of the
primary, secondary and presentation asset pools over its layers, and
renders each one into the catalog directory layout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := c.loadSettings()
			if err != nil {
				return err
			}
			applySettings(cmd, &opts, settings)
			return c.runGenerate(cmd.Context(), &opts, settings)
		},
	}

	cmd.Flags().StringVarP(&opts.templatePath, "template", "t", "", "template markup file (required)")
	cmd.Flags().StringVar(&opts.primariesDir, "primaries", "", "directory of primary product images")
	cmd.Flags().StringVar(&opts.secondariesDir, "secondaries", "", "directory of secondary product images")
	cmd.Flags().StringVar(&opts.presentationsDir, "presentations", "", "directory of presentation images")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "catalog output directory")
	cmd.Flags().StringVar(&opts.extension, "extension", "", "output image format (webp, png, jpg)")
	cmd.Flags().BoolVar(&opts.override, "override", false, "re-render existing destination files")
	cmd.Flags().BoolVar(&opts.unsharp, "unsharp", false, "apply the sharpen pass after resizing")
	cmd.Flags().BoolVar(&opts.skipPresentation, "skip-presentations", false, "render without presentation assets")
	cmd.Flags().BoolVar(&opts.skipSecondary, "skip-secondaries", false, "render without secondary assets")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "sync the output tree to the bucket afterwards")
	cmd.Flags().StringVar(&opts.bucket, "bucket", "", "bucket name for --upload")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the asset encoding cache")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "log progress instead of showing the progress view")
	_ = cmd.MarkFlagRequired("template")

	return cmd
}

// applySettings fills every option the user did not set explicitly from
// the settings file.
func applySettings(cmd *cobra.Command, opts *generateOpts, s *config.Settings) {
	if !cmd.Flags().Changed("primaries") {
		opts.primariesDir = s.MainProductsPath
	}
	if !cmd.Flags().Changed("secondaries") {
		opts.secondariesDir = s.SecondaryProductsPath
	}
	if !cmd.Flags().Changed("presentations") {
		opts.presentationsDir = s.PresentationsPath
	}
	if !cmd.Flags().Changed("output") {
		opts.outputDir = s.OutputPath
	}
	if !cmd.Flags().Changed("override") {
		opts.override = s.OverrideTargetFiles
	}
	if !cmd.Flags().Changed("unsharp") {
		opts.unsharp = s.Unsharp
	}
	if !cmd.Flags().Changed("upload") {
		opts.upload = s.UploadToS3
	}
	if !cmd.Flags().Changed("bucket") {
		opts.bucket = s.BucketName
	}
}

func (c *CLI) runGenerate(ctx context.Context, opts *generateOpts, settings *config.Settings) error {
	tpl, err := template.LoadFromFile(opts.templatePath)
	if err != nil {
		return err
	}

	primaries, err := listAssets(opts.primariesDir)
	if err != nil {
		return err
	}
	secondaries, err := listAssets(opts.secondariesDir)
	if err != nil {
		return err
	}
	presentations, err := listAssets(opts.presentationsDir)
	if err != nil {
		return err
	}

	builder := composition.NewBuilder(tpl, primaries, secondaries, presentations,
		composition.BuilderOptions{
			IncludePresentation: settings.IncludePresentationItems && !opts.skipPresentation,
			IncludeSecondary:    settings.IncludeSecondaryItems && !opts.skipSecondary,
		})

	total := builder.Count()
	if total == 0 {
		printWarning("No compositions to render: check the template layers and asset pools")
		return nil
	}
	printInfo("Rendering %d compositions from %d primary, %d secondary, %d presentation assets",
		total, len(primaries), len(secondaries), len(presentations))

	renderOpts := render.FromSettings(settings)
	renderOpts.OutputDir = opts.outputDir
	renderOpts.OverrideImages = opts.override
	renderOpts.Unsharp = opts.unsharp
	renderOpts.IncludePresentationItems = !opts.skipPresentation && settings.IncludePresentationItems
	renderOpts.IncludeSecondaryItems = !opts.skipSecondary && settings.IncludeSecondaryItems
	if opts.extension != "" {
		renderOpts.Extension = opts.extension
	}
	if err := renderOpts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return err
	}

	pipeline := render.NewPipeline(nil, newAssetCache(opts.noCache), c.Logger)
	runner := render.NewRunner(pipeline, c.Logger)

	report, err := c.runBatch(ctx, runner, builder, &renderOpts, opts.plain)
	if err != nil {
		return err
	}

	printSuccess("Rendered %d compositions", len(report.Rendered))
	if len(report.Skipped) > 0 {
		printWarning("%d compositions skipped", len(report.Skipped))
		for _, skip := range report.Skipped {
			printDetail("%s: %s", skip.Name, skip.Reason)
		}
	}
	printFile(opts.outputDir)

	if opts.upload {
		return c.uploadOutput(ctx, opts.outputDir, opts.bucket, settings)
	}
	printNextStep("Upload the catalog", fmt.Sprintf("%s sync %s --bucket <name>", appName, opts.outputDir))
	return nil
}

// runBatch runs the batch either behind the progress view or with plain
// log output.
func (c *CLI) runBatch(ctx context.Context, runner *render.Runner, b *composition.Builder, opts *render.Options, plain bool) (*render.Report, error) {
	if plain || !stdoutIsTTY() {
		track := newProgress(c.Logger)
		report, err := runner.Run(ctx, b, opts, nil)
		if err != nil {
			return report, err
		}
		track.done(fmt.Sprintf("Rendered %d compositions", len(report.Rendered)))
		return report, nil
	}

	program := tea.NewProgram(NewBatchModel(b.Count()))
	return runBatchProgram(ctx, program, runner, b, opts)
}

// runBatchProgram drives the runner behind the progress view. The view
// quitting early (ctrl+c) cancels the batch context; the runner
// goroutine is always waited for before its report is read.
func runBatchProgram(ctx context.Context, program *tea.Program, runner *render.Runner, b *composition.Builder, opts *render.Options) (*render.Report, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var report *render.Report
	var runErr error
	done := make(chan struct{})
	go func() {
		report, runErr = runner.Run(runCtx, b, opts, func(res render.ItemResult) {
			program.Send(itemMsg(res))
		})
		close(done)
		program.Send(batchDoneMsg{})
	}()

	_, uiErr := program.Run()
	cancel()
	<-done
	if uiErr != nil {
		return nil, uiErr
	}
	return report, runErr
}

func (c *CLI) uploadOutput(ctx context.Context, dir, bucket string, settings *config.Settings) error {
	client, err := sync.NewS3Client(ctx, sync.S3Options{
		Bucket:    bucket,
		Region:    settings.S3Region,
		AccessKey: settings.S3AccessKey,
		SecretKey: settings.S3SecretKey,
		Endpoint:  settings.S3Endpoint,
	})
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Uploading %s to %s", dir, bucket))
	spinner.Start()
	res, err := sync.NewSyncer(client, loggerFromContext(ctx)).Sync(ctx, dir)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Upload failed: %v", err))
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Uploaded %d files (%d already present)", len(res.Uploaded), res.Existing))
	return nil
}

// assetExtensions are the raster formats accepted in asset pools.
var assetExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// listAssets returns the image files in dir, sorted by name. A missing
// or empty directory yields an empty pool.
func listAssets(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var assets []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if assetExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			assets = append(assets, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(assets)
	return assets, nil
}

func stdoutIsTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
