package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	jwttoken "keystone/internal/jwt_token"
	"keystone/internal/onboarding/fieldmap"
	"keystone/internal/onboarding/models"
	"keystone/internal/onboarding/progress"
	"keystone/internal/onboarding/schema"
	"keystone/internal/onboarding/transform"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wizardctl",
		Short:         "Inspect onboarding wizard schemas and mappings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSchemaCmd(),
		newProgressCmd(),
		newTransformCmd(),
		newUntransformCmd(),
		newTokenCmd(),
	)
	return root
}

func newSchemaCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "schema <role>",
		Short: "Print the phases and sections of a role's wizard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), sch.Phases)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "STEP\tPHASE\tSECTION\tFIELDS")
			for _, phase := range sch.Phases {
				for _, section := range phase.Sections {
					step, _ := sch.StepOf(section.Key)
					fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", step, phase.Slug, section.Key, len(section.Fields))
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full schema as JSON")
	return cmd
}

func newProgressCmd() *cobra.Command {
	var (
		mode      string
		perPhase  int
		completed string
	)
	cmd := &cobra.Command{
		Use:   "progress <role> <step>",
		Short: "Resolve a server step number to a wizard position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sch, err := loadSchema(args[0])
			if err != nil {
				return err
			}
			step, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("step must be an integer: %w", err)
			}
			m, err := progress.ParseMode(mode)
			if err != nil {
				return err
			}
			steps, err := parseSteps(completed)
			if err != nil {
				return err
			}
			res := progress.New(m, progress.WithSectionsPerPhase(perPhase)).Resolve(sch, step, steps)
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"mode":              m,
				"position":          res.Position,
				"inSchema":          res.InSchema,
				"completedSections": res.CompletedSections,
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(progress.ModeSchema), "progress mode (schema or legacy)")
	cmd.Flags().IntVar(&perPhase, "sections-per-phase", progress.DefaultSectionsPerPhase, "legacy sections per phase")
	cmd.Flags().StringVar(&completed, "completed", "", "comma separated completed step numbers")
	return cmd
}

func newTransformCmd() *cobra.Command {
	var (
		input    string
		identity string
	)
	cmd := &cobra.Command{
		Use:   "transform <table>",
		Short: "Translate wizard answers into the backend payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, lookup, err := loadTable(args[0])
			if err != nil {
				return err
			}
			data, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			answers, err := models.DecodeAnswers(data, lookup)
			if err != nil {
				return fmt.Errorf("decode answers: %w", err)
			}
			res := transform.ToAPIShape(answers, table, identity)
			for _, w := range res.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", w.Path, w.Message)
			}
			return writeJSON(cmd.OutOrStdout(), res.Payload)
		},
	}
	cmd.Flags().StringVarP(&input, "file", "f", "-", "answers JSON file, - for stdin")
	cmd.Flags().StringVar(&identity, "identity", "", "identity used to fill the representative email")
	return cmd
}

func newUntransformCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "untransform <table>",
		Short: "Translate a backend payload back into wizard answers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, lookup, err := loadTable(args[0])
			if err != nil {
				return err
			}
			data, err := readInput(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			var payload models.Payload
			if err := json.Unmarshal(data, &payload); err != nil {
				return fmt.Errorf("decode payload: %w", err)
			}
			answers := transform.FromAPIShape(payload, table).Resolve(lookup)
			return writeJSON(cmd.OutOrStdout(), answers)
		},
	}
	cmd.Flags().StringVarP(&input, "file", "f", "-", "payload JSON file, - for stdin")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var (
		key      string
		issuer   string
		audience string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <email>",
		Short: "Mint a development identity token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				key = os.Getenv("JWT_SIGNING_KEY")
			}
			if key == "" {
				return fmt.Errorf("a signing key is required (--key or JWT_SIGNING_KEY)")
			}
			token, err := jwttoken.NewJWTService(key, issuer, audience).GenerateIdentityToken(args[0], ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "HMAC signing key")
	cmd.Flags().StringVar(&issuer, "issuer", "", "token issuer")
	cmd.Flags().StringVar(&audience, "audience", "", "token audience")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func loadSchema(roleName string) (*schema.Schema, error) {
	role, err := models.ParseRole(roleName)
	if err != nil {
		return nil, err
	}
	catalog, err := schema.NewCatalog()
	if err != nil {
		return nil, err
	}
	return catalog.Get(role)
}

// loadTable resolves a mapping table and the field types of the phase that
// uses it.
func loadTable(name string) (*fieldmap.Table, models.FieldTypeLookup, error) {
	table, err := fieldmap.ByName(name)
	if err != nil {
		return nil, nil, err
	}
	catalog, err := schema.NewCatalog()
	if err != nil {
		return nil, nil, err
	}
	for _, role := range models.Roles() {
		sch, err := catalog.Get(role)
		if err != nil {
			return nil, nil, err
		}
		for _, phase := range sch.Phases {
			if phase.Table == name {
				return table, sch.FieldTypes(), nil
			}
		}
	}
	return table, func(string) (models.FieldType, bool) { return "", false }, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func parseSteps(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	steps := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid completed step %q", p)
		}
		steps = append(steps, n)
	}
	return steps, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
