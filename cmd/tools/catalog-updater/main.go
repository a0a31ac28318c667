// cmd/tools/catalog-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"task-command-router/internal/intent"
	"task-command-router/pkg/registry"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return fmt.Errorf("missing command")
	}

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportPath := exportCmd.String("path", "configs/commands.json", "Destination catalog file")
	force := exportCmd.Bool("force", false, "Overwrite an existing file")

	exampleCmd := flag.NewFlagSet("add-example", flag.ContinueOnError)
	examplePath := exampleCmd.String("path", "configs/commands.json", "Catalog file")
	exampleIntent := exampleCmd.String("intent", "", "Intent wire name (e.g. add_task)")
	exampleText := exampleCmd.String("example", "", "Example utterance")

	validateCmd := flag.NewFlagSet("validate", flag.ContinueOnError)
	validatePath := validateCmd.String("path", "configs/commands.json", "Catalog file")

	switch args[0] {
	case "export":
		if err := exportCmd.Parse(args[1:]); err != nil {
			return err
		}
		if _, err := os.Stat(*exportPath); err == nil && !*force {
			return fmt.Errorf("%s exists, pass -force to overwrite", *exportPath)
		}
		cat := registry.Default()
		cat.LastUpdated = time.Now().Format("2006-01-02")
		if err := saveCatalog(cat, *exportPath); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %d commands to %s\n", len(cat.Commands), *exportPath)

	case "add-example":
		if err := exampleCmd.Parse(args[1:]); err != nil {
			return err
		}
		if *exampleIntent == "" || *exampleText == "" {
			exampleCmd.Usage()
			return fmt.Errorf("intent and example are required for add-example")
		}
		if err := addExample(*examplePath, *exampleIntent, *exampleText); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added example to %s: %q\n", *exampleIntent, *exampleText)

	case "validate":
		if err := validateCmd.Parse(args[1:]); err != nil {
			return err
		}
		n, err := validateCatalog(*validatePath)
		if err != nil {
			return fmt.Errorf("catalog validation failed: %w", err)
		}
		fmt.Fprintf(out, "Catalog validation passed. Checked %d examples.\n", n)

	case "help":
		help(out)

	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

// addExample appends an utterance after checking the classifier routes it to
// the intent it is filed under.
func addExample(path, intentName, example string) error {
	cat, err := registry.LoadCatalog(path)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	idx := -1
	for i := range cat.Commands {
		if cat.Commands[i].Intent == intentName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("intent %s not found in catalog", intentName)
	}
	for _, existing := range cat.Commands[idx].Examples {
		if existing == example {
			return fmt.Errorf("example %q already listed for %s", example, intentName)
		}
	}

	classifier, err := intent.NewClassifier()
	if err != nil {
		return err
	}
	if got := classifier.Classify(example).Intent.String(); got != intentName {
		return fmt.Errorf("example %q classifies as %s, not %s", example, got, intentName)
	}

	cat.Commands[idx].Examples = append(cat.Commands[idx].Examples, example)
	cat.LastUpdated = time.Now().Format("2006-01-02")
	return saveCatalog(cat, path)
}

// validateCatalog checks required fields, duplicate intents and that every
// example still classifies to its own intent.
func validateCatalog(path string) (int, error) {
	cat, err := registry.LoadCatalog(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load catalog: %w", err)
	}

	classifier, err := intent.NewClassifier()
	if err != nil {
		return 0, err
	}

	seen := make(map[string]bool)
	checked := 0
	for _, cmd := range cat.Commands {
		if cmd.Intent == "" {
			return 0, fmt.Errorf("command missing required field: intent")
		}
		if _, err := intent.ParseKind(cmd.Intent); err != nil {
			return 0, fmt.Errorf("command %s: %w", cmd.Intent, err)
		}
		if seen[cmd.Intent] {
			return 0, fmt.Errorf("duplicate intent: %s", cmd.Intent)
		}
		seen[cmd.Intent] = true

		if cmd.DisplayName == "" {
			return 0, fmt.Errorf("command %s missing required field: displayName", cmd.Intent)
		}
		for _, ex := range cmd.Examples {
			if got := classifier.Classify(ex).Intent.String(); got != cmd.Intent {
				return 0, fmt.Errorf("example %q of %s classifies as %s", ex, cmd.Intent, got)
			}
			checked++
		}
	}
	return checked, nil
}

func saveCatalog(cat *registry.Catalog, path string) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}

func help(out io.Writer) {
	fmt.Fprintln(out, `
Usage: catalog-updater <command> [flags]

Commands:
  export       Write the built-in command catalog to a JSON file
  add-example  Add an example utterance to an intent
  validate     Check the catalog and classify every example
  help         Show this help message

Examples:
  catalog-updater export -path configs/commands.json
  catalog-updater add-example -intent add_task -example "add task Book flights"
  catalog-updater validate -path configs/commands.json`)
}
