package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var httpMethods = map[string]struct{}{
	"get": {}, "put": {}, "post": {}, "delete": {},
	"patch": {}, "head": {}, "options": {},
}

type swaggerParameter struct {
	Name     string `yaml:"name"`
	In       string `yaml:"in"`
	Required bool   `yaml:"required"`
}

type swaggerOperation struct {
	Parameters []swaggerParameter    `yaml:"parameters"`
	Responses  map[string]yaml.Node  `yaml:"responses"`
	Security   []map[string][]string `yaml:"security"`
}

type swaggerDoc struct {
	Paths map[string]map[string]yaml.Node `yaml:"paths"`
}

// apiSurface is the part of a swagger document clients depend on:
// path -> method -> operation.
type apiSurface map[string]map[string]swaggerOperation

type openAPIFlags struct {
	base     string
	revision string
}

func newOpenAPICmd() *cobra.Command {
	var flags openAPIFlags

	cmd := &cobra.Command{
		Use:   "openapi-compat",
		Short: "Fail when a revised swagger document breaks existing clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(flags.base) == "" || strings.TrimSpace(flags.revision) == "" {
				return errors.New("--base and --revision are required")
			}
			base, err := loadSurface(flags.base)
			if err != nil {
				return fmt.Errorf("load base document: %w", err)
			}
			revision, err := loadSurface(flags.revision)
			if err != nil {
				return fmt.Errorf("load revision document: %w", err)
			}

			if issues := breakingChanges(base, revision); len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintf(cmd.ErrOrStderr(), "- %s\n", issue)
				}
				return fmt.Errorf("backward compatibility check failed with %d issue(s)", len(issues))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "openapi compatibility check passed")
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.base, "base", "", "base swagger.yaml path")
	cmd.Flags().StringVar(&flags.revision, "revision", "", "revision swagger.yaml path")
	return cmd
}

func loadSurface(path string) (apiSurface, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseSurface(raw)
}

func parseSurface(raw []byte) (apiSurface, error) {
	var doc swaggerDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Paths == nil {
		return nil, errors.New("missing top-level paths field")
	}

	surface := make(apiSurface, len(doc.Paths))
	for path, entries := range doc.Paths {
		ops := make(map[string]swaggerOperation)
		for method, node := range entries {
			method = strings.ToLower(strings.TrimSpace(method))
			if _, ok := httpMethods[method]; !ok {
				continue
			}
			var op swaggerOperation
			if err := node.Decode(&op); err != nil {
				return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(method), path, err)
			}
			ops[method] = op
		}
		if len(ops) > 0 {
			surface[path] = ops
		}
	}
	return surface, nil
}

// breakingChanges lists what the revision removed or tightened relative to
// base, sorted for stable output.
func breakingChanges(base, revision apiSurface) []string {
	var issues []string

	for path, baseOps := range base {
		revOps, ok := revision[path]
		if !ok {
			issues = append(issues, "removed path: "+path)
			continue
		}
		for method, baseOp := range baseOps {
			label := strings.ToUpper(method) + " " + path
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, "removed operation: "+label)
				continue
			}
			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf("removed response code: %s -> %s", label, strings.ToUpper(code)))
				}
			}
			issues = append(issues, tightenedParameters(label, baseOp, revOp)...)
			if len(baseOp.Security) == 0 && len(revOp.Security) > 0 {
				issues = append(issues, "now requires authentication: "+label)
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// tightenedParameters reports parameters a client could omit before and
// must send now.
func tightenedParameters(label string, base, revision swaggerOperation) []string {
	before := make(map[string]bool, len(base.Parameters))
	for _, p := range base.Parameters {
		before[p.In+":"+p.Name] = p.Required
	}

	var issues []string
	for _, p := range revision.Parameters {
		if !p.Required {
			continue
		}
		required, existed := before[p.In+":"+p.Name]
		switch {
		case !existed:
			issues = append(issues, fmt.Sprintf("new required %s parameter %q: %s", p.In, p.Name, label))
		case !required:
			issues = append(issues, fmt.Sprintf("%s parameter %q became required: %s", p.In, p.Name, label))
		}
	}
	return issues
}
