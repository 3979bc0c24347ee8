// Package main renders translator-friendly error catalog status artifacts.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hyamero/trackAsOne/internal/platform/errors/i18n"
)

type report struct {
	BaseLocale string         `json:"base_locale"`
	Locales    []localeStatus `json:"locales"`
}

type localeStatus struct {
	Locale       string        `json:"locale"`
	BaseCodes    int           `json:"base_codes"`
	Translated   int           `json:"translated"`
	Missing      int           `json:"missing"`
	Extra        int           `json:"extra"`
	Completion   float64       `json:"completion"`
	Groups       []groupStatus `json:"groups"`
	MissingCodes []string      `json:"missing_codes"`
	ExtraCodes   []string      `json:"extra_codes"`
}

// groupStatus summarizes codes sharing a prefix such as ROOM or TASK.
type groupStatus struct {
	Group      string  `json:"group"`
	BaseCodes  int     `json:"base_codes"`
	Translated int     `json:"translated"`
	Missing    int     `json:"missing"`
	Completion float64 `json:"completion"`
}

func main() {
	var baseLocale string
	var markdownOut string
	var jsonOut string

	flag.StringVar(&baseLocale, "base-locale", i18n.BaseLocale, "base locale used as translation source of truth")
	flag.StringVar(&markdownOut, "out", "docs/reference/error-catalog-status.md", "markdown output path")
	flag.StringVar(&jsonOut, "json-out", "docs/reference/error-catalog-status.json", "json output path")
	flag.Parse()

	catalogs := map[string][]string{}
	for _, locale := range i18n.Locales() {
		catalogs[locale] = i18n.GetCatalog(locale).Codes()
	}
	if _, ok := catalogs[baseLocale]; !ok {
		fatalf("base locale %q has no catalog", baseLocale)
	}

	rep := buildReport(catalogs, baseLocale)
	if err := writeJSON(jsonOut, rep); err != nil {
		fatalf("write json report: %v", err)
	}
	if err := writeMarkdown(markdownOut, rep); err != nil {
		fatalf("write markdown report: %v", err)
	}
	fmt.Printf("wrote %s and %s\n", markdownOut, jsonOut)
}

func buildReport(catalogs map[string][]string, baseLocale string) report {
	base := toSet(catalogs[baseLocale])

	statuses := make([]localeStatus, 0, len(catalogs))
	for locale, codes := range catalogs {
		target := toSet(codes)
		missing := difference(base, target)
		extra := difference(target, base)
		translated := len(base) - len(missing)
		statuses = append(statuses, localeStatus{
			Locale:       locale,
			BaseCodes:    len(base),
			Translated:   translated,
			Missing:      len(missing),
			Extra:        len(extra),
			Completion:   percent(translated, len(base)),
			Groups:       groupStatuses(base, target),
			MissingCodes: missing,
			ExtraCodes:   extra,
		})
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Locale < statuses[j].Locale
	})

	return report{BaseLocale: baseLocale, Locales: statuses}
}

func groupStatuses(base, target map[string]struct{}) []groupStatus {
	totals := map[string]int{}
	translated := map[string]int{}
	for code := range base {
		group := groupOf(code)
		totals[group]++
		if _, ok := target[code]; ok {
			translated[group]++
		}
	}
	groups := make([]string, 0, len(totals))
	for group := range totals {
		groups = append(groups, group)
	}
	sort.Strings(groups)

	out := make([]groupStatus, 0, len(groups))
	for _, group := range groups {
		out = append(out, groupStatus{
			Group:      group,
			BaseCodes:  totals[group],
			Translated: translated[group],
			Missing:    totals[group] - translated[group],
			Completion: percent(translated[group], totals[group]),
		})
	}
	return out
}

func groupOf(code string) string {
	if idx := strings.Index(code, "_"); idx > 0 {
		return code[:idx]
	}
	return code
}

func writeJSON(path string, rep report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func renderMarkdown(rep report) string {
	var b strings.Builder
	b.WriteString("# Error Catalog Status\n\n")
	b.WriteString("Generated by `go run ./internal/tools/i18nstatus`.\n\n")
	fmt.Fprintf(&b, "Base locale: `%s`.\n\n", rep.BaseLocale)

	b.WriteString("## Locale Summary\n\n")
	b.WriteString("| Locale | Base Codes | Translated | Missing | Extra | Completion |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: | ---: |\n")
	for _, locale := range rep.Locales {
		fmt.Fprintf(&b, "| `%s` | %d | %d | %d | %d | %.1f%% |\n", locale.Locale, locale.BaseCodes, locale.Translated, locale.Missing, locale.Extra, locale.Completion)
	}

	for _, locale := range rep.Locales {
		fmt.Fprintf(&b, "\n## Locale: `%s`\n\n", locale.Locale)
		b.WriteString("| Group | Base Codes | Translated | Missing | Completion |\n")
		b.WriteString("| --- | ---: | ---: | ---: | ---: |\n")
		for _, group := range locale.Groups {
			fmt.Fprintf(&b, "| `%s` | %d | %d | %d | %.1f%% |\n", group.Group, group.BaseCodes, group.Translated, group.Missing, group.Completion)
		}
		writeCodeList(&b, "Missing Codes", locale.MissingCodes)
		writeCodeList(&b, "Extra Codes", locale.ExtraCodes)
	}
	return b.String()
}

func writeCodeList(b *strings.Builder, title string, codes []string) {
	if len(codes) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### %s\n\n", title)
	for _, code := range codes {
		fmt.Fprintf(b, "- `%s`\n", code)
	}
}

func writeMarkdown(path string, rep report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(renderMarkdown(rep)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func toSet(codes []string) map[string]struct{} {
	out := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		out[code] = struct{}{}
	}
	return out
}

// difference returns the sorted codes in a that are absent from b.
func difference(a, b map[string]struct{}) []string {
	out := make([]string, 0)
	for code := range a {
		if _, ok := b[code]; !ok {
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}

func percent(numerator int, denominator int) float64 {
	if denominator <= 0 {
		return 100
	}
	value := float64(numerator) * 100 / float64(denominator)
	return math.Round(value*10) / 10
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
