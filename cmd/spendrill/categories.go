package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"spendrill/internal/core"
)

var categoriesFlags struct {
	delete string
	force  bool
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories, or delete one with --delete",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, cleanup, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if categoriesFlags.delete != "" {
			err := a.manager.DeleteCategory(ctx, categoriesFlags.delete, categoriesFlags.force)
			var conflict *core.ConflictError
			if errors.As(err, &conflict) {
				return fmt.Errorf("%s (re-run with --force to delete them too)", conflict)
			}
			if err != nil {
				return err
			}
			fmt.Printf("deleted category %s\n", categoriesFlags.delete)
			return nil
		}

		cats, err := a.store.ListCategories(ctx)
		if err != nil {
			return err
		}
		for _, cat := range cats {
			fmt.Printf("%s %-28s %-24s %d subcategories\n", cat.Emoji, cat.Name, cat.ID, len(cat.Subcategories))
		}
		return nil
	},
}

func init() {
	categoriesCmd.Flags().StringVar(&categoriesFlags.delete, "delete", "", "delete the category with this id")
	categoriesCmd.Flags().BoolVar(&categoriesFlags.force, "force", false, "cascade-delete dependent transactions")
	rootCmd.AddCommand(categoriesCmd)
}
