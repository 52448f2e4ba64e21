package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/pin-extract-go/internal/app"
	"github.com/yourusername/pin-extract-go/internal/domain"
)

var (
	serverURL   string
	noAutoStart bool
	jsonOutput  bool
	rootCmd     = &cobra.Command{
		Use:   "pin-extract",
		Short: "Pin Extract CLI - harvest and download media from Pinterest pages",
		Long: `A command-line interface for the Pin Extract server: scan pages for pins,
queue batches of media downloads and follow their progress.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8087", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output raw JSON")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(harvestCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(watchCmd)
}

// ensureServer checks if server is running and starts it if needed (unless --no-auto-start)
func ensureServer(cmd *cobra.Command, args []string) {
	if noAutoStart {
		return
	}
	if err := ensureServerRunning(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

var scanCmd = &cobra.Command{
	Use:    "scan [url...]",
	Short:  "List the media found on one or more pages",
	Args:   cobra.MinimumNArgs(1),
	PreRun: ensureServer,
	RunE: func(cmd *cobra.Command, args []string) error {
		var scans []app.PageScan
		if len(args) == 1 {
			var scan app.PageScan
			if err := call(http.MethodPost, "/api/v1/scan", map[string]string{"url": args[0]}, &scan); err != nil {
				return err
			}
			scans = append(scans, scan)
		} else {
			var result struct {
				Pages []app.PageScan `json:"pages"`
			}
			if err := call(http.MethodPost, "/api/v1/scan", map[string][]string{"urls": args}, &result); err != nil {
				return err
			}
			scans = result.Pages
		}

		if jsonOutput {
			printJSON(scans)
			return nil
		}

		for _, scan := range scans {
			fmt.Printf("%s (%s, %d items, bulk: %v)\n", scan.URL, scan.Page.Type, len(scan.References), scan.BulkEligible)
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tFILENAME\tURL")
			for _, ref := range scan.References {
				fmt.Fprintf(w, "%s\t%s\t%s\n", ref.Kind, ref.SuggestedFilename, truncate(ref.SourceURL, 80))
			}
			w.Flush()
		}
		return nil
	},
}

var harvestCmd = &cobra.Command{
	Use:    "harvest [url]",
	Short:  "Download every pin on a board or search page",
	Args:   cobra.ExactArgs(1),
	PreRun: ensureServer,
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]interface{}
		if err := call(http.MethodPost, "/api/v1/harvest", map[string]string{"url": args[0]}, &result); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(result)
		} else {
			fmt.Printf("Batch started!\n")
			fmt.Printf("Batch:  %v\n", result["batchId"])
			fmt.Printf("Found:  %v\n", result["found"])
			fmt.Printf("Queued: %v\n", result["queueSize"])
			fmt.Printf("Folder: %v\n", result["folderName"])
		}

		if follow, _ := cmd.Flags().GetBool("follow"); follow {
			return followProgress()
		}
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Submit a batch of media references from a JSON file",
	Long: `Submit a batch from a JSON file holding either a list of references
([{"mediaUrl": "...", "filename": "..."}]) or an object with "items" and "folderName".
Use "-" to read from stdin.`,
	Args:   cobra.ExactArgs(1),
	PreRun: ensureServer,
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, err := readBatch(args[0])
		if err != nil {
			return err
		}
		if folder, _ := cmd.Flags().GetString("folder"); folder != "" {
			batch.Folder = folder
		}

		var result app.SubmitResult
		if err := call(http.MethodPost, "/api/v1/batches", batch, &result); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(result)
		} else {
			fmt.Printf("Batch started!\n")
			fmt.Printf("Batch:  %s\n", result.BatchID)
			fmt.Printf("Queued: %d\n", result.QueueSize)
		}

		if follow, _ := cmd.Flags().GetBool("follow"); follow {
			return followProgress()
		}
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download [media-url]",
	Short: "Download a single media item",
	Long: `Download a single media item, either by its URL or by resolving the first
element matching --selector on the page given with --page.`,
	Args:   cobra.MaximumNArgs(1),
	PreRun: ensureServer,
	RunE: func(cmd *cobra.Command, args []string) error {
		filename, _ := cmd.Flags().GetString("filename")
		page, _ := cmd.Flags().GetString("page")
		selector, _ := cmd.Flags().GetString("selector")

		payload := map[string]string{"filename": filename}
		switch {
		case len(args) == 1:
			payload["mediaUrl"] = args[0]
		case page != "" && selector != "":
			payload["pageUrl"] = page
			payload["selector"] = selector
		default:
			return fmt.Errorf("either a media URL or --page with --selector is required")
		}

		var result map[string]interface{}
		if err := call(http.MethodPost, "/api/v1/downloads", payload, &result); err != nil {
			return err
		}
		if jsonOutput {
			printJSON(result)
			return nil
		}
		fmt.Println("Download started")
		if mediaURL, ok := result["mediaUrl"]; ok {
			fmt.Printf("Media: %v\n", mediaURL)
		}
		return nil
	},
}

// statsResponse mirrors GET /api/v1/stats
type statsResponse struct {
	Stats       domain.Stats `json:"stats"`
	Single      domain.Stats `json:"single"`
	State       string       `json:"state"`
	QueueLength int          `json:"queueLength"`
	BatchID     string       `json:"batchId"`
}

var statsCmd = &cobra.Command{
	Use:    "stats",
	Short:  "Show download statistics",
	PreRun: ensureServer,
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats statsResponse
		if err := call(http.MethodGet, "/api/v1/stats", nil, &stats); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(stats)
			return nil
		}

		fmt.Println("Download Statistics:")
		fmt.Printf("  State:      %s\n", stats.State)
		if stats.BatchID != "" {
			fmt.Printf("  Batch:      %s\n", stats.BatchID)
		}
		fmt.Printf("  Total:      %d\n", stats.Stats.Total)
		fmt.Printf("  Completed:  %d\n", stats.Stats.Completed)
		fmt.Printf("  Failed:     %d\n", stats.Stats.Failed)
		fmt.Printf("  Queued:     %d\n", stats.QueueLength)
		fmt.Printf("  Single:     %d/%d (failed %d)\n", stats.Single.Completed, stats.Single.Total, stats.Single.Failed)
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:    "cancel",
	Short:  "Cancel the queued downloads of the current batch",
	PreRun: ensureServer,
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Dropped int `json:"dropped"`
		}
		if err := call(http.MethodPost, "/api/v1/cancel", nil, &result); err != nil {
			return err
		}
		fmt.Printf("Downloads cancelled (%d dropped)\n", result.Dropped)
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:    "jobs",
	Short:  "List recorded download outcomes",
	PreRun: ensureServer,
	RunE: func(cmd *cobra.Command, args []string) error {
		query := url.Values{}
		if batch, _ := cmd.Flags().GetString("batch"); batch != "" {
			query.Set("batch", batch)
		}
		if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 {
			query.Set("limit", fmt.Sprint(limit))
		}

		var result struct {
			Count   int                 `json:"count"`
			Jobs    []*domain.JobRecord `json:"jobs"`
			Summary domain.JobSummary   `json:"summary"`
		}
		if err := call(http.MethodGet, "/api/v1/jobs?"+query.Encode(), nil, &result); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(result)
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BATCH\tSTATUS\tDESTINATION\tURL\tFINISHED")
		for _, job := range result.Jobs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(job.BatchID, 8),
				job.Status,
				truncate(job.DestinationPath, 40),
				truncate(job.URL, 50),
				job.FinishedAt.Format("2006-01-02 15:04:05"))
		}
		w.Flush()
		fmt.Printf("\n%d total, %d completed, %d failed, %d stale\n",
			result.Summary.Total, result.Summary.Completed, result.Summary.Failed, result.Summary.Stale)
		return nil
	},
}

func init() {
	harvestCmd.Flags().BoolP("follow", "f", false, "Follow batch progress")
	batchCmd.Flags().String("folder", "", "Destination folder, overrides the file's folderName")
	batchCmd.Flags().BoolP("follow", "f", false, "Follow batch progress")
	downloadCmd.Flags().String("filename", "", "Filename to save as")
	downloadCmd.Flags().String("page", "", "Page URL to resolve the media from")
	downloadCmd.Flags().String("selector", "", "CSS selector of the media element on --page")
	jobsCmd.Flags().StringP("batch", "b", "", "Only show jobs of this batch")
	jobsCmd.Flags().IntP("limit", "n", 50, "Number of jobs to show")
}

// readBatch loads a batch from a JSON file, accepting a bare list of references too
func readBatch(path string) (app.Batch, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return app.Batch{}, fmt.Errorf("failed to read batch: %w", err)
	}

	var batch app.Batch
	if err := json.Unmarshal(data, &batch); err == nil && len(batch.Items) > 0 {
		return batch, nil
	}
	var items []domain.MediaReference
	if err := json.Unmarshal(data, &items); err != nil {
		return app.Batch{}, fmt.Errorf("failed to parse batch: %w", err)
	}
	return app.Batch{Items: items}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
