package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/phasegate/internal/engine"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate lesson catalogs",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the lessons of the configured catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		c, err := loadCatalog(cfg.Catalog.Path)
		if err != nil {
			return err
		}

		t := newTable([]string{"ID", "Title", "Pre", "Post", "Video"}, 2, 3, 4)
		for _, l := range c.Lessons() {
			t.Row(l.ID, truncate(l.Title, 36), strconv.Itoa(len(l.Pre)), strconv.Itoa(len(l.PostItems())),
				fmt.Sprintf("%ds", l.Video.DurationSeconds))
		}
		fmt.Printf("Catalog %s\n", c.Version())
		printTable(t)
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check a catalog file against the schema and the phase rules",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		path := cfg.Catalog.Path
		if len(args) == 1 {
			path = args[0]
		}
		c, err := loadCatalog(path)
		if err != nil {
			return err
		}
		rules, err := cfg.EngineRules()
		if err != nil {
			return err
		}

		var failed int
		for _, l := range c.Lessons() {
			if _, err := engine.NewMachine(&l, rules); err != nil {
				fmt.Printf("✗ %s: %v\n", l.ID, err)
				failed++
				continue
			}
			fmt.Printf("✓ %s\n", l.ID)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d lessons invalid", failed, len(c.Lessons()))
		}
		fmt.Printf("\n%d lessons OK (format %s)\n", len(c.Lessons()), c.Version())
		return nil
	},
}

func init() {
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogValidateCmd)
}
