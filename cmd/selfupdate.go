package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// UpdateRepoEnv overrides the release repository at run time.
const UpdateRepoEnv = "VATFILER_UPDATE_REPO"

// releaseRepo is the GitHub owner/repo publishing vatfiler releases. It is
// empty unless set at build time through SetReleaseRepo.
var releaseRepo string

// SetReleaseRepo records the release repository baked into the binary.
func SetReleaseRepo(slug string) {
	releaseRepo = slug
}

func newSelfUpdateCmd() *cobra.Command {
	var repo string
	var checkOnly bool

	c := &cobra.Command{
		Use:   "self-update",
		Short: "Update vatfiler to the latest release",
		Long: `Checks the configured GitHub repository for a newer vatfiler release and
replaces the running binary with it.

The repository is taken from --repo, then $` + UpdateRepoEnv + `, then the
value baked in at build time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfUpdate(cmd, repo, checkOnly)
		},
	}
	c.Flags().StringVar(&repo, "repo", "", "GitHub repository (owner/repo) publishing releases")
	c.Flags().BoolVar(&checkOnly, "check", false, "Only report whether a newer release exists")
	return c
}

// resolveReleaseRepo picks the repository from the flag, the environment
// or the build-time default, in that order.
func resolveReleaseRepo(flag string) (string, error) {
	slug := flag
	if slug == "" {
		slug = os.Getenv(UpdateRepoEnv)
	}
	if slug == "" {
		slug = releaseRepo
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return "", fmt.Errorf("no release repository configured: pass --repo or set %s", UpdateRepoEnv)
	}
	if owner, name, ok := strings.Cut(slug, "/"); !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", fmt.Errorf("invalid release repository %q: expected owner/repo", slug)
	}
	return slug, nil
}

func runSelfUpdate(cmd *cobra.Command, repoFlag string, checkOnly bool) error {
	currentVersion := rootCmd.Version
	// Development builds do not follow semantic versioning.
	if currentVersion == "" || currentVersion == "dev" {
		return fmt.Errorf("cannot self-update a development version")
	}

	slug, err := resolveReleaseRepo(repoFlag)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	ctx := commandContext(cmd)

	fmt.Fprintf(out, "Current version: %s\n", currentVersion)
	fmt.Fprintf(out, "Checking %s for updates...\n", slug)

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(slug))
	if err != nil {
		return fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found in %s", slug)
	}

	if !latest.GreaterThan(currentVersion) {
		fmt.Fprintln(out, "Current version is the latest.")
		return nil
	}

	fmt.Fprintf(out, "Found newer version: %s (published at %s)\n", latest.Version(), latest.PublishedAt)
	if checkOnly {
		return nil
	}
	fmt.Fprintf(out, "Release notes:\n%s\n", latest.ReleaseNotes)

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	fmt.Fprintf(out, "Updating %s to version %s...\n", exe, latest.Version())
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}
