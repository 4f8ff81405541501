package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ryanbastic/go-contentstore/internal/content"
	"github.com/ryanbastic/go-contentstore/internal/element"
)

var getCmd = &cobra.Command{
	Use:   "get <type> <element-id> <site-id>",
	Short: "Print an element's content row",
	Long: `Get prints the content row of one element on one site, with the field
column prefix removed from column names.

Example:
  contentstore get entry 42 1`,
	Args: cobra.ExactArgs(3),
	RunE: runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	elementID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid element id %q", args[1])
	}
	siteID, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid site id %q", args[2])
	}

	a, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	typ, err := a.types.TypeFor(args[0])
	if err != nil {
		return err
	}

	row, err := a.content.GetContentRow(cmd.Context(), element.New(typ, elementID, siteID))
	if errors.Is(err, content.ErrContentNotFound) {
		return fmt.Errorf("no content for %s %d on site %d", args[0], elementID, siteID)
	}
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(row, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}
