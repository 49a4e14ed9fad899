package main

import (
	"database/sql"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"merchanthaus.com/web/internal/applications"
	"merchanthaus.com/web/internal/leads"
	"merchanthaus.com/web/internal/sqlitedb"
)

func (c *cli) newLeadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Leads received by the form backend",
	}

	var (
		dbPath string
		opts   leads.ListOptions
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored leads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDB(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := leads.NewSQLStore(db).List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			writeLeads(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	list.Flags().StringVar(&dbPath, "db", "", "SQLite database (defaults to MH_SQLITE_PATH)")
	list.Flags().StringVar(&opts.Form, "form", "", "only leads of this form")
	list.Flags().BoolVar(&opts.IncludeSpam, "spam", false, "include honeypot hits")
	list.Flags().IntVar(&opts.Limit, "limit", 50, "maximum rows")

	cmd.AddCommand(list)
	return cmd
}

func (c *cli) newApplicationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "applications",
		Short: "Merchant applications",
	}

	var (
		dbPath string
		limit  int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List stored merchant applications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.openDB(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			apps, err := applications.NewSQLStore(db).List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			writeApplications(cmd.OutOrStdout(), apps)
			return nil
		},
	}
	list.Flags().StringVar(&dbPath, "db", "", "SQLite database (defaults to MH_SQLITE_PATH)")
	list.Flags().IntVar(&limit, "limit", 50, "maximum rows")

	cmd.AddCommand(list)
	return cmd
}

func (c *cli) openDB(path string) (*sql.DB, error) {
	if path == "" {
		path = c.cfg.Leads.SQLitePath
	}
	db, err := sqlitedb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return db, nil
}

func writeLeads(w io.Writer, rows []leads.Lead) {
	table := newTable(w, []string{"ID", "Form", "Received", "Name", "Email", "Spam"})
	for _, l := range rows {
		table.Append([]string{
			l.ID,
			l.FormName,
			l.ReceivedAt.Format(time.RFC3339),
			first(l.Fields["name"]),
			first(l.Fields["email"]),
			yesNo(l.Spam),
		})
	}
	table.Render()
	fmt.Fprintf(w, "%d lead(s)\n", len(rows))
}

func writeApplications(w io.Writer, apps []applications.Application) {
	table := newTable(w, []string{"ID", "Business", "Contact", "Email", "Products", "Created"})
	for _, a := range apps {
		products := append([]string(nil), a.Products...)
		sort.Strings(products)
		table.Append([]string{
			a.ID,
			a.DBAName,
			a.ContactName,
			a.Email,
			strings.Join(products, ","),
			a.CreatedAt.Format(time.RFC3339),
		})
	}
	table.Render()
	fmt.Fprintf(w, "%d application(s)\n", len(apps))
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: false, Right: false, Top: true, Bottom: true})
	return table
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
