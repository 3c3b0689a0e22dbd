package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/folio/internal/config"
	"github.com/kalambet/folio/internal/profile"
	"github.com/kalambet/folio/internal/seed"
)

// --- seed ---

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo profiles into the store",
	Long: `Load profiles from a YAML seed document into the store. Profiles whose
email already exists are skipped, so seeding twice is harmless.

Examples:
  folio seed
  folio seed --file ./team.yaml
  cat team.yaml | folio seed --file -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		inputs, err := loadSeedInputs(file, cmd.InOrStdin())
		if err != nil {
			return err
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		setupLogging(cfg.Log.Level)

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore(store)

		res, err := seed.Run(cmd.Context(), profile.NewManager(store), inputs, slog.Default())
		if err != nil {
			return err
		}

		for _, p := range res.Created {
			printSuccess("Created %s <%s> (%s)", p.Name, p.Email, shortID(p.ID))
		}
		for _, email := range res.Skipped {
			printWarning("Skipped %s: already exists", email)
		}
		return nil
	},
}

func loadSeedInputs(file string, stdin io.Reader) ([]profile.Input, error) {
	switch file {
	case "":
		return seed.Default()
	case "-":
		return seed.Load(stdin)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()
	return seed.Load(f)
}

func init() {
	seedCmd.Flags().String("file", "", "YAML seed file (default: built-in demo profiles, - for stdin)")
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and manage profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		profiles, err := client.listProfiles(cmd.Context())
		if err != nil {
			return err
		}

		writeProfiles(cmd.OutOrStdout(), profiles)
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		p, err := client.getProfile(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return printJSON(cmd.OutOrStdout(), p)
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a profile with its projects and work history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete profile %s and everything it owns. Use --confirm to proceed.", args[0])
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		if err := client.deleteProfile(cmd.Context(), args[0]); err != nil {
			return err
		}

		printSuccess("Deleted profile %s", args[0])
		return nil
	},
}

func init() {
	profileDeleteCmd.Flags().Bool("confirm", false, "confirm deletion")
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileDeleteCmd)
}

// --- queries ---

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects owned by profiles with a skill",
	Long: `List every project whose owner lists the given skill. Matching is exact
and case-sensitive.

Examples:
  folio projects --skill React`,
	RunE: func(cmd *cobra.Command, args []string) error {
		skill, _ := cmd.Flags().GetString("skill")
		asJSON, _ := cmd.Flags().GetBool("json")
		if skill == "" {
			return fmt.Errorf("--skill is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		projects, err := client.projectsBySkill(cmd.Context(), skill)
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), projects)
		}
		writeProjects(cmd.OutOrStdout(), projects)
		return nil
	},
}

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Skill statistics",
}

var skillsTopCmd = &cobra.Command{
	Use:   "top",
	Short: "Rank skills by how many profiles list them",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")
		if limit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		skills, err := client.topSkills(cmd.Context())
		if err != nil {
			return err
		}
		if limit > 0 && limit < len(skills) {
			skills = skills[:limit]
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), skills)
		}
		writeSkills(cmd.OutOrStdout(), skills)
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find profiles by skill, project text or work description",
	Long: `Find profiles that list the query as a skill (exact match), or whose
project titles, project descriptions or work descriptions contain it.

Examples:
  folio search React
  folio search payment systems`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := strings.Join(args, " ")
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		profiles, err := client.search(cmd.Context(), q)
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), profiles)
		}
		writeProfiles(cmd.OutOrStdout(), profiles)
		return nil
	},
}

func init() {
	projectsCmd.Flags().String("skill", "", "skill to filter by (required)")
	projectsCmd.Flags().Bool("json", false, "print raw JSON")

	skillsTopCmd.Flags().Int("limit", 10, "number of skills to show (0 for all)")
	skillsTopCmd.Flags().Bool("json", false, "print raw JSON")
	skillsCmd.AddCommand(skillsTopCmd)

	searchCmd.Flags().Bool("json", false, "print raw JSON")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		printStatus("File", "%s", config.FilePath())
		for _, k := range config.ShowAll(cfg) {
			line := fmt.Sprintf("  %s = %s", colorize(colorBold, k.Key), k.Value)
			if k.Changed() {
				line += colorize(colorYellow, fmt.Sprintf("  (default %s)", k.Default))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  [%s]\n", line, k.EnvVar)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:       "set <key> <value>",
	Short:     "Set a configuration value",
	Args:      cobra.ExactArgs(2),
	ValidArgs: config.ValidKeys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:       "unset <key>",
	Short:     "Remove a configuration value so the default applies",
	Args:      cobra.ExactArgs(1),
	ValidArgs: config.ValidKeys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.UnsetKey(args[0]); err != nil {
			return err
		}

		printSuccess("Unset %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
