// ABOUTME: Category commands: list, create, rename, and delete
// ABOUTME: All category commands require a stored login

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/newsdesk/internal/client"
	"github.com/markalston/newsdesk/internal/crud"
	"github.com/markalston/newsdesk/internal/resources"
)

var categoriesCmd = &cobra.Command{
	Use:     "categories",
	Aliases: []string{"category", "cat"},
	Short:   "Manage post categories",
}

var categoriesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List categories",
	Run: runWithSignals(func(ctx context.Context, _ []string) int {
		return runCategoriesList(ctx, os.Stdout)
	}),
}

var categoriesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a category",
	Args:  cobra.MinimumNArgs(1),
	Run: runWithSignals(func(ctx context.Context, args []string) int {
		return runCategoriesCreate(ctx, os.Stdout, strings.Join(args, " "))
	}),
}

var categoriesUpdateCmd = &cobra.Command{
	Use:   "update <id> <name>",
	Short: "Rename a category",
	Args:  cobra.MinimumNArgs(2),
	Run: runWithSignals(func(ctx context.Context, args []string) int {
		id, err := parseID(args[0])
		if err != nil {
			return fail(os.Stdout, err)
		}
		return runCategoriesUpdate(ctx, os.Stdout, id, strings.Join(args[1:], " "))
	}),
}

var categoriesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a category after confirmation",
	Args:  cobra.ExactArgs(1),
	Run: runWithSignals(func(ctx context.Context, args []string) int {
		id, err := parseID(args[0])
		if err != nil {
			return fail(os.Stdout, err)
		}
		return runCategoriesDelete(ctx, os.Stdout, id)
	}),
}

func init() {
	categoriesCmd.AddCommand(categoriesListCmd, categoriesCreateCmd, categoriesUpdateCmd, categoriesDeleteCmd)
	rootCmd.AddCommand(categoriesCmd)
}

func (e *appEnv) categoriesController(w io.Writer) *crud.Controller[client.Category, resources.CategoryDraft] {
	return resources.NewCategoriesController(e.session,
		crud.WithNotifier(cliNotifier{w: w}),
		crud.WithLogger(e.log),
	)
}

// openAuthenticated opens the environment and applies the auth gate
func openAuthenticated(ctx context.Context) (*appEnv, error) {
	env, err := openEnv(ctx)
	if err != nil {
		return nil, err
	}
	if err := env.requireLogin(); err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

func runCategoriesList(ctx context.Context, w io.Writer) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	ctrl := env.categoriesController(w)
	if err := ctrl.List(ctx); err != nil {
		return fail(w, err)
	}

	items := ctrl.Items()
	if IsJSONOutput() {
		if err := printJSON(w, items); err != nil {
			return fail(w, err)
		}
		return exitOK
	}
	fmt.Fprintln(w, formatCategoriesTable(items))
	return exitOK
}

func runCategoriesCreate(ctx context.Context, w io.Writer, name string) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	ctrl := env.categoriesController(w)
	defer ctrl.Close()

	ctrl.BeginCreate()
	return reportMutation(w, ctrl.Submit(ctx, resources.CategoryDraft{Name: name}))
}

func runCategoriesUpdate(ctx context.Context, w io.Writer, id int, name string) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	ctrl := env.categoriesController(w)
	defer ctrl.Close()

	if err := ctrl.List(ctx); err != nil {
		return fail(w, err)
	}
	cat, ok := ctrl.Find(id)
	if !ok {
		fmt.Fprintf(w, "Error: category %d not found\n", id)
		return exitRemote
	}

	ctrl.BeginEdit(cat)
	return reportMutation(w, ctrl.Submit(ctx, resources.CategoryDraft{Name: name}))
}

func runCategoriesDelete(ctx context.Context, w io.Writer, id int) int {
	env, err := openAuthenticated(ctx)
	if err != nil {
		return fail(w, err)
	}
	defer env.Close()

	ctrl := env.categoriesController(w)
	defer ctrl.Close()

	if err := ctrl.List(ctx); err != nil {
		env.log.Warn("could not load categories for the delete prompt", "error", err)
	}
	return reportMutation(w, ctrl.Delete(ctx, id, cliConfirmer(w)))
}

func formatCategoriesTable(categories []client.Category) string {
	if len(categories) == 0 {
		return "No categories found."
	}
	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []string{strconv.Itoa(c.ID), c.Name, c.Slug})
	}
	return renderTable([]string{"ID", "Name", "Slug"}, rows)
}
