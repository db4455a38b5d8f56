package main

import (
	"fmt"
	"os"
	"path/filepath"

	"carbonsense/entryfile"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "entries-lint [file.json...]",
		Short: "Validate entry files without touching the database",
		Long: `Checks every entry for a YYYY-MM-DD date, a known travel mode and food
type, and non-negative numbers. With no arguments every *.json file in
--dir is checked.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if len(files) == 0 {
				var err error
				files, err = filepath.Glob(filepath.Join(dir, "*.json"))
				if err != nil {
					return fmt.Errorf("cannot read %s: %w", dir, err)
				}
			}
			if len(files) == 0 {
				cmd.Printf("no .json entry files found in %s\n", dir)
				return nil
			}

			failed := 0
			for _, f := range files {
				if !lintFile(cmd, f) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(files))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "./data", "Directory scanned when no files are given")
	return cmd
}

func lintFile(cmd *cobra.Command, path string) bool {
	f, err := os.Open(path)
	if err != nil {
		cmd.Printf("%s: open error: %v\n", path, err)
		return false
	}
	defer f.Close()

	records, err := entryfile.Decode(f)
	if err != nil {
		cmd.Printf("%s: %v\n", path, err)
		return false
	}

	problems := entryfile.Check(records)
	for _, p := range problems {
		cmd.Printf("%s: %s\n", path, p)
	}
	if len(problems) > 0 {
		return false
	}
	cmd.Printf("%s: OK (%d entries)\n", path, len(records))
	return true
}
