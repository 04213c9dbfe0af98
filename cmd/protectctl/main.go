package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cybx-security/protect/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	apiURL  string
	cfgFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "protectctl",
	Short: "cybx protect score CLI",
	Long: `protectctl is the operator CLI for the cybx protect score service.

It fetches and previews device protection scores, weekly trends, and
protection summaries from a running protectd instance.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.protectctl")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if apiURL == "" {
			apiURL = viper.GetString("api_url")
		}
		if apiURL == "" {
			apiURL = "http://localhost:8080"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "protectd base URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.protectctl/config.yaml)")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(versionCmd)

	previewCmd.Flags().Bool("include-others", false, "count the device's other active threats as well")
	eventCmd.Flags().Int("points", -1, "points to award (default from server rule config)")
}

var scoreCmd = &cobra.Command{
	Use:   "score <device-id>",
	Short: "Recompute and persist a device's protection score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		result, err := client.New(apiURL).GetScore(ctx, args[0])
		if err != nil {
			return err
		}
		printScore(result)
		return nil
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <device-id> <threat-id> [threat-id...]",
	Short: "Preview the score counting only the given threats",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		includeOthers, _ := cmd.Flags().GetBool("include-others")
		ignore := !includeOthers

		result, err := client.New(apiURL).PreviewScore(ctx, args[0], client.PreviewRequest{
			ThreatIDs:          args[1:],
			IgnoreOtherThreats: &ignore,
		})
		if err != nil {
			return err
		}
		printScore(result)
		return nil
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend <device-id>",
	Short: "Show the device's weekly score trend",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		progress, err := client.New(apiURL).WeeklyProgress(ctx, args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tSCORE")
		for _, p := range progress.Trend.Points {
			fmt.Fprintf(w, "%s\t%d\n", p.Date, p.TotalScore)
		}
		w.Flush()

		fmt.Printf("\nchange: %+d (%.1f%%)\n", progress.Trend.ChangeAbsolute, progress.Trend.ChangePercent)
		fmt.Printf("streak: %d days, phishing blocked this week: %d\n",
			progress.ProtectionProgress.CurrentStreakDays,
			progress.ProtectionProgress.PhishingBlockedThisWeek)
		fmt.Println(progress.ProtectionProgress.Suggestion)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary <device-id>",
	Short: "Show 30-day and lifetime protection metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		s, err := client.New(apiURL).ProtectionSummary(ctx, args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "\tLAST %d DAYS\tLIFETIME\n", s.ActiveWindowDays)
		fmt.Fprintf(w, "links scanned\t%d\t%d\n", s.Active.LinksScanned, s.Lifetime.LinksScanned)
		fmt.Fprintf(w, "spam blocked\t%d\t%d\n", s.Active.SpamBlocked, s.Lifetime.SpamBlocked)
		fmt.Fprintf(w, "app issues\t%d\t%d\n", s.Active.AppIssues, s.Lifetime.AppIssues)
		fmt.Fprintf(w, "network issues\t%d\t%d\n", s.Active.NetworkIssues, s.Lifetime.NetworkIssues)
		fmt.Fprintf(w, "device issues\t%d\t%d\n", s.Active.DeviceIssues, s.Lifetime.DeviceIssues)
		fmt.Fprintf(w, "other issues\t%d\t%d\n", s.Active.OtherIssues, s.Lifetime.OtherIssues)
		return w.Flush()
	},
}

var eventCmd = &cobra.Command{
	Use:   "event <device-id> <event-type>",
	Short: "Record an engagement event for a device",
	Long: `Record an engagement event. Event types: DAILY_ACTIVE, DEVICE_SCAN,
ALERT_RESPONDED, FEATURE_USED, ISSUE_RESOLVED.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		req := client.RecordEventRequest{EventType: strings.ToUpper(args[1])}
		if points, _ := cmd.Flags().GetInt("points"); points >= 0 {
			req.Points = &points
		}

		if err := client.New(apiURL).RecordEngagementEvent(ctx, args[0], req); err != nil {
			return err
		}
		fmt.Println("event recorded")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the protectctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("protectctl", version)
	},
}

func printScore(r *client.ScoreResult) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "device\t%s\n", r.DeviceID)
	fmt.Fprintf(w, "total score\t%d / 90\n", r.TotalScore)
	fmt.Fprintf(w, "status\t%s (%s)\n", r.Status, r.ColorCode)
	fmt.Fprintf(w, "security\t%d (deductions %d)\n", r.Breakdown.SecurityScore, r.Breakdown.SecurityDeductions)
	fmt.Fprintf(w, "engagement\t%d\n", r.Breakdown.EngagementPoints)
	fmt.Fprintf(w, "insurance\t%d\n", r.Breakdown.InsurancePoints)
	w.Flush()
	fmt.Println(r.Message)
}
