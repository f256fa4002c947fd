package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/weirdqq-coder/troyyon/internal/application/session"
	"github.com/weirdqq-coder/troyyon/internal/application/usecases"
	"github.com/weirdqq-coder/troyyon/internal/config"
	"github.com/weirdqq-coder/troyyon/internal/domain"
	domainservices "github.com/weirdqq-coder/troyyon/internal/domain/services"
	"github.com/weirdqq-coder/troyyon/internal/infrastructure/external"
	"github.com/weirdqq-coder/troyyon/internal/infrastructure/logging"
	"github.com/weirdqq-coder/troyyon/internal/infrastructure/repositories"
	infraservices "github.com/weirdqq-coder/troyyon/internal/infrastructure/services"
)

var validExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif"}

// CLI flags
var (
	subjectFlag string
	garmentFlag string
	outFlag     string
	dataURIFlag bool
	outDirFlag  string
)

var rootCmd = &cobra.Command{
	Use:   "tryon",
	Short: "Virtual try-on from the command line",
	Long: `tryon renders a garment onto a photo of a person with the configured
image model, and encodes images the same way the web app does.

Examples:
  tryon generate --subject me.jpg --garment shirt.png --out result.png
  tryon encode photo.jpg --data-uri
  tryon encode ./images --out-dir ./encoded`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		logging.Init(cfg.IsDevelopment(), cfg.LogLevel)
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render the garment onto the subject and write the result image",
	RunE:  runGenerate,
}

var encodeCmd = &cobra.Command{
	Use:   "encode PATH...",
	Short: "Print or save the base64 form of image files or directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEncode,
}

func init() {
	generateCmd.Flags().StringVarP(&subjectFlag, "subject", "s", "", "Photo of the person")
	generateCmd.Flags().StringVarP(&garmentFlag, "garment", "g", "", "Photo of the garment")
	generateCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Output file (default: tryon-<request id> with the result's extension)")
	generateCmd.MarkFlagRequired("subject")
	generateCmd.MarkFlagRequired("garment")

	encodeCmd.Flags().BoolVar(&dataURIFlag, "data-uri", false, "Print the data URI instead of bare base64")
	encodeCmd.Flags().StringVar(&outDirFlag, "out-dir", "", "Write one <name>.txt per image instead of printing")

	rootCmd.AddCommand(generateCmd, encodeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()

	pools := infraservices.NewClientPoolService(external.NewClientConfig(cfg))
	defer pools.Close()

	ingest := usecases.NewIngestUseCase(cfg.MaxUploadBytes)
	tryOn := usecases.NewTryOnUseCase(
		repositories.NewMemoryTryOnRepository(),
		domainservices.NewTryOnDomainService(external.NewTryOnGenerator(cfg, pools), cfg.RequestTimeout),
	)
	controller := session.NewController(ingest, tryOn)

	if err := selectFile(ctx, controller, session.RoleSubject, subjectFlag); err != nil {
		return err
	}
	if err := selectFile(ctx, controller, session.RoleGarment, garmentFlag); err != nil {
		return err
	}

	log.Info().Str("subject", subjectFlag).Str("garment", garmentFlag).Msg("generating try-on image")
	if err := controller.Generate(ctx); err != nil {
		return fmt.Errorf("%s", domain.Message(err))
	}

	state := controller.State()
	if state.LastError != "" {
		return fmt.Errorf("%s", state.LastError)
	}

	out := outFlag
	if out == "" {
		out = "tryon-" + string(state.LastRequestID) + state.Result.Extension()
	}
	if err := os.WriteFile(out, state.Result.Data(), 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", out, state.Result.Format())
	return nil
}

func selectFile(ctx context.Context, controller *session.Controller, role session.Role, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s image: %w", role, err)
	}
	defer f.Close()

	if err := controller.SelectImage(ctx, role, f, mediaTypeFor(path)); err != nil {
		return fmt.Errorf("%s image %s: %w", role, path, err)
	}
	return nil
}

func runEncode(cmd *cobra.Command, args []string) error {
	ingest := usecases.NewIngestUseCase(0)

	var files []string
	for _, arg := range args {
		found, err := collectImages(arg)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no images found in %s", strings.Join(args, ", "))
	}

	if outDirFlag != "" {
		if err := os.MkdirAll(outDirFlag, 0o755); err != nil {
			return err
		}
	}

	for _, path := range files {
		encoded, err := encodeFile(cmd.Context(), ingest, path)
		if err != nil {
			return err
		}

		if outDirFlag == "" {
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			continue
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".txt"
		if err := os.WriteFile(filepath.Join(outDirFlag, name), []byte(encoded), 0o644); err != nil {
			return fmt.Errorf("failed to save %s: %w", name, err)
		}
		log.Info().Str("file", path).Str("out", name).Msg("encoded image")
	}
	return nil
}

func encodeFile(ctx context.Context, ingest *usecases.IngestUseCase, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	image, err := ingest.Ingest(ctx, f, mediaTypeFor(path))
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if dataURIFlag {
		return image.DisplayableForm(), nil
	}
	return image.EncodedData(), nil
}

// collectImages returns path itself for a file, or the images directly inside
// it for a directory.
func collectImages(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if slices.Contains(validExtensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	return files, nil
}

// mediaTypeFor guesses from the extension; an empty result lets ingestion sniff the bytes.
func mediaTypeFor(path string) string {
	return mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
}
