package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MAjunjie0415/deepread-cc/internal"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON HTTP API",
	Long: `Serve caption pulling and deep reading over HTTP.

Endpoints:
- POST /api/pull          {url, lang}: transcript or a classified error
- GET  /api/proxy?v=ID    json3-shaped caption events
- POST /api/deep_reading  analyse a transcript
- POST /api/drill_down    long-form article for one main line
- GET  /healthz`,
	Example: `  # Listen on the configured address (default :8080)
  deepread serve

  # Listen on another port
  deepread serve --addr 127.0.0.1:9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			config.ListenAddr = addr
		}

		app, err := internal.NewApp(config)
		if err != nil {
			return err
		}
		defer func() { _ = app.Close() }()

		if err := internal.ValidateAPIKey(config.DeepSeekAPIKey); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (analysis endpoints will answer 503)\n", err)
		}
		if !config.Quiet {
			fmt.Fprintf(os.Stderr, "Listening on %s\n", config.ListenAddr)
		}
		return internal.NewServer(app).ListenAndServe(cmd.Context(), config.ListenAddr)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config, :8080)")
	rootCmd.AddCommand(serveCmd)
}
