package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/folio/internal/profile"
	"github.com/kalambet/folio/internal/query"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// writeProfiles prints one line per profile: short id, name, email, skills.
func writeProfiles(w io.Writer, profiles []profile.Profile) {
	if len(profiles) == 0 {
		fmt.Fprintln(w, "No profiles found.")
		return
	}
	for _, p := range profiles {
		fmt.Fprintf(w, "%s  %s <%s>", colorize(colorCyan, shortID(p.ID)), colorize(colorBold, p.Name), p.Email)
		if len(p.Skills) > 0 {
			fmt.Fprintf(w, "  [%s]", strings.Join(p.Skills, ", "))
		}
		fmt.Fprintln(w)
	}
}

func writeProjects(w io.Writer, projects []query.AnnotatedProject) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects found.")
		return
	}
	for _, p := range projects {
		fmt.Fprintf(w, "%s  %s\n", colorize(colorBold, p.Title), colorize(colorCyan, "by "+p.ProfileName))
		if p.Description != "" {
			fmt.Fprintf(w, "  %s\n", truncate(p.Description, 200))
		}
		for _, l := range p.Links {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
}

func writeSkills(w io.Writer, skills []query.SkillCount) {
	if len(skills) == 0 {
		fmt.Fprintln(w, "No skills found.")
		return
	}
	width := 0
	for _, s := range skills {
		width = max(width, len(s.Skill))
	}
	for i, s := range skills {
		fmt.Fprintf(w, "%3d. %-*s %d\n", i+1, width, s.Skill, s.Count)
	}
}
