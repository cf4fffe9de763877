package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jiratools/jiratools/internal/config"
	"github.com/jiratools/jiratools/internal/jira"
	"github.com/jiratools/jiratools/internal/labels"
)

var (
	dryRun          bool
	atlassianDomain string
	configFile      string
	jqlFlag         string
	issueKeys       []string
	addLabels       []string
	removeLabels    []string
)

var rootCmd = &cobra.Command{
	Use:   "jira-edit-labels [keys]",
	Short: "Add and remove labels on Jira issues in bulk",
	Long: `Add and remove labels on Jira issues in bulk.

Target issues are selected either by explicit keys (--key, repeatable; bare
arguments are also read as keys) or by a JQL query (--jql); the two are
mutually exclusive. The same label diff is applied to every selected issue.

Credentials come from an INI configuration file with one section per
Atlassian domain (see jira-download-issues --help for the layout).

Examples:
  jira-edit-labels --key PROJ-1 --key PROJ-2 --add triaged
  jira-edit-labels --key PROJ-1 PROJ-2 --add triaged
  jira-edit-labels --jql 'project = PROJ AND status = Done' --remove stale
  jira-edit-labels --key PROJ-1 --add foo --remove bar -n   # dry run`,
	Args: cobra.ArbitraryArgs,
	Run:  runEditLabels,
}

func init() {
	rootCmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Perform a trial run with no changes made")
	rootCmd.Flags().StringVar(&atlassianDomain, "atlassian-domain", "", "Atlassian domain on which the issues will be labeled (default: 'domain' from the DEFAULTS section of the config file)")
	rootCmd.Flags().StringVar(&configFile, "config-file", "config.ini", "INI configuration file with Atlassian credentials")
	rootCmd.Flags().StringVar(&jqlFlag, "jql", "", "JQL query to find issues")
	rootCmd.Flags().StringArrayVar(&issueKeys, "key", nil, "Jira issue key (repeatable; bare arguments are also read as keys)")
	rootCmd.Flags().StringArrayVar(&addLabels, "add", nil, "Label to add (repeatable)")
	rootCmd.Flags().StringArrayVar(&removeLabels, "remove", nil, "Label to remove (repeatable)")
}

// targetKeys merges the --key flag values with bare arguments, so
// "--key PROJ-1 PROJ-2" selects both issues.
func targetKeys(flagKeys, args []string) []string {
	keys := make([]string, 0, len(flagKeys)+len(args))
	keys = append(keys, flagKeys...)
	return append(keys, args...)
}

func runEditLabels(cmd *cobra.Command, args []string) {
	keys := targetKeys(issueKeys, args)
	if len(keys) > 0 && jqlFlag != "" {
		fmt.Fprintf(os.Stderr, "Error: --key and --jql are mutually exclusive\n")
		os.Exit(1)
	}
	if len(keys) == 0 && jqlFlag == "" {
		fmt.Fprintf(os.Stderr, "Error: no issues selected (use --key or --jql)\n")
		os.Exit(1)
	}

	editor := &labels.Editor{
		Add:       addLabels,
		Remove:    removeLabels,
		DryRun:    dryRun,
		OnMessage: func(msg string) { fmt.Println(msg) },
		OnWarning: func(msg string) { fmt.Fprintf(os.Stderr, "Warning: %s\n", msg) },
	}
	if err := editor.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	creds, err := cfg.Credentials(atlassianDomain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if jqlFlag != "" {
		fmt.Printf("JQL: %s\n", jqlFlag)
	}
	if len(keys) > 0 {
		fmt.Printf("Jira keys: %s\n", strings.Join(keys, ", "))
	}
	if len(addLabels) > 0 {
		fmt.Printf("Add labels: %s\n", strings.Join(addLabels, ", "))
	}
	if len(removeLabels) > 0 {
		fmt.Printf("Remove labels: %s\n", strings.Join(removeLabels, ", "))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	editor.Client = jira.NewClient("https://"+creds.Domain, creds.User, creds.APIToken)

	stats, err := editor.Run(ctx, keys, jqlFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Processed %d issue(s)\n", stats.Processed)
	if dryRun {
		fmt.Printf("DRY RUN: would have updated %d issue(s)\n", stats.Updated)
	} else {
		fmt.Printf("Updated %d issue(s)\n", stats.Updated)
	}

	if stats.Failed > 0 {
		fmt.Fprintf(os.Stderr, "Error: %d issue(s) failed\n", stats.Failed)
		os.Exit(1)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
