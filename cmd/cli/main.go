package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// app carries what every command needs
type app struct {
	apiURL string
	tokens *tokenStore
	// readPassword prompts for a password without echo
	readPassword func(prompt string) (string, error)
}

func main() {
	tokens, err := defaultTokenStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	a := &app{
		apiURL:       os.Getenv("LIBRARYDESK_API_URL"),
		tokens:       tokens,
		readPassword: promptPassword,
	}
	if err := newRootCmd(a).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func promptPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password required: pass --password or run in a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}

func (a *app) client() *client {
	return newClient(a.apiURL, a.tokens.Load())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "librarydesk",
		Short:        "Command line client for the LibraryDesk API",
		SilenceUsage: true,
		Long: `Command line client for the LibraryDesk API.

Environment Variables:
  LIBRARYDESK_API_URL   API endpoint (default: ` + defaultAPIURL + `)`,
	}
	root.PersistentFlags().StringVar(&a.apiURL, "api", a.apiURL, "API endpoint")

	root.AddCommand(
		a.loginCmd(),
		a.registerCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.booksCmd(),
		a.borrowCmd(),
		a.returnCmd(),
		a.historyCmd(),
		a.recordsCmd(),
		a.reportCmd(),
	)
	return root
}

func (a *app) password(value string) (string, error) {
	if value != "" {
		return value, nil
	}
	return a.readPassword("Password: ")
}

// Auth commands

func (a *app) loginCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with an email or library id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.password(password)
			if err != nil {
				return err
			}
			var result struct {
				Token string `json:"token"`
			}
			_, err = newClient(a.apiURL, "").call(cmd.Context(), http.MethodPost, "/api/auth/login",
				map[string]string{"username": username, "password": pw}, &result)
			if err != nil {
				return err
			}
			if err := a.tokens.Save(result.Token); err != nil {
				return fmt.Errorf("failed to store token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Logged in as %s\n", username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "email or library id")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (a *app) registerCmd() *cobra.Command {
	var libraryID, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a member account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := a.password(password)
			if err != nil {
				return err
			}
			var user profile
			msg, err := newClient(a.apiURL, "").call(cmd.Context(), http.MethodPost, "/api/auth/register",
				map[string]string{"libraryId": libraryID, "email": email, "password": pw}, &user)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %s (%s)\n", msg, user.Email, user.LibraryID)
			return nil
		},
	}
	cmd.Flags().StringVar(&libraryID, "library-id", "", "library card id")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("library-id")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.tokens.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var me profile
			if _, err := a.client().call(cmd.Context(), http.MethodGet, "/api/auth/me", nil, &me); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s) role=%s\n", me.Email, me.LibraryID, me.Role)
			return nil
		},
	}
}

// Catalogue commands

func (a *app) booksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse and manage the catalogue",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every book (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listBooks(cmd.Context(), cmd.OutOrStdout(), "/api/admin/books")
		},
	}
	available := &cobra.Command{
		Use:   "available",
		Short: "List books that can be borrowed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listBooks(cmd.Context(), cmd.OutOrStdout(), "/api/user/books")
		},
	}

	var code, title, author string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a book (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var b book
			_, err := a.client().call(cmd.Context(), http.MethodPost, "/api/admin/books/add",
				map[string]string{"bookCode": code, "title": title, "author": author}, &b)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Added book %d: %s\n", b.ID, b.Title)
			return nil
		},
	}
	add.Flags().StringVar(&code, "code", "", "unique book code")
	add.Flags().StringVar(&title, "title", "", "title")
	add.Flags().StringVar(&author, "author", "", "author")

	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change a book's title, author or status (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			body := map[string]string{}
			for _, name := range []string{"title", "author", "status"} {
				if cmd.Flags().Changed(name) {
					v, _ := cmd.Flags().GetString(name)
					body[name] = v
				}
			}
			if len(body) == 0 {
				return errors.New("nothing to update: pass --title, --author or --status")
			}
			var b book
			if _, err := a.client().call(cmd.Context(), http.MethodPut, "/api/admin/books/"+id, body, &b); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Updated book %d: %s by %s [%s]\n", b.ID, b.Title, b.Author, b.Status)
			return nil
		},
	}
	update.Flags().String("title", "", "new title")
	update.Flags().String("author", "", "new author")
	update.Flags().String("status", "", "AVAILABLE or BORROWED")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a book with no loan history (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			msg, err := a.client().call(cmd.Context(), http.MethodDelete, "/api/admin/books/delete/"+id, nil, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", msg)
			return nil
		},
	}

	cmd.AddCommand(list, available, add, update, del)
	return cmd
}

func (a *app) listBooks(ctx context.Context, out io.Writer, path string) error {
	var books []book
	if _, err := a.client().call(ctx, http.MethodGet, path, nil, &books); err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Fprintln(out, "No books found")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODE\tTITLE\tAUTHOR\tSTATUS")
	for _, b := range books {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", b.ID, b.BookCode, b.Title, b.Author, b.Status)
	}
	return w.Flush()
}

// Circulation commands

func (a *app) borrowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "borrow BOOK_ID",
		Short: "Borrow a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var loan struct {
				BorrowDate string `json:"borrowDate"`
				DueDate    string `json:"dueDate"`
			}
			msg, err := a.client().call(cmd.Context(), http.MethodPost, "/api/user/borrow/book/"+id, nil, &loan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s. Borrowed %s, due %s\n", msg, loan.BorrowDate, loan.DueDate)
			return nil
		},
	}
}

func (a *app) returnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "return",
		Short: "Return the book you have borrowed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var result struct {
				LateFee jsoniter.Number `json:"lateFee"`
			}
			msg, err := a.client().call(cmd.Context(), http.MethodPost, "/api/user/borrow/return", nil, &result)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s. Late fee: %s\n", msg, result.LateFee)
			return nil
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show your loan history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listRecords(cmd.Context(), cmd.OutOrStdout(), "/api/user/borrow/history")
		},
	}
}

func (a *app) recordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "Show every loan (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listRecords(cmd.Context(), cmd.OutOrStdout(), "/api/admin/borrow-records")
		},
	}
}

func (a *app) listRecords(ctx context.Context, out io.Writer, path string) error {
	var records []borrowRecord
	if _, err := a.client().call(ctx, http.MethodGet, path, nil, &records); err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "No borrow records found")
		return nil
	}
	printRecords(out, records)
	return nil
}

func printRecords(out io.Writer, records []borrowRecord) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tBOOK\tBORROWED\tDUE\tRETURNED\tFEE")
	for _, r := range records {
		returned := "-"
		if r.ReturnDate != nil {
			returned = *r.ReturnDate
		}
		fee := r.LateFee.String()
		if fee == "" {
			fee = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", r.ID, r.UserEmail, r.BookCode, r.BorrowDate, r.DueDate, returned, fee)
	}
	_ = w.Flush()
}

func (a *app) reportCmd() *cobra.Command {
	var month string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the monthly circulation report (admin)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/api/admin/reports/monthly"
			if month != "" {
				path += "?month=" + url.QueryEscape(month)
			}
			var report monthlyReport
			if _, err := a.client().call(cmd.Context(), http.MethodGet, path, nil, &report); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Report for %s (%s to %s)\n", report.Month, report.StartDate, report.EndDate)
			for _, section := range []struct {
				title   string
				records []borrowRecord
			}{
				{"Borrowed", report.BooksBorrowed},
				{"Returned", report.BooksReturned},
				{"Overdue", report.OverdueBooks},
			} {
				fmt.Fprintf(out, "\n%s: %d\n", section.title, len(section.records))
				if len(section.records) > 0 {
					printRecords(out, section.records)
				}
			}

			fmt.Fprintf(out, "\nUser activity:\n")
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "EMAIL\tBORROWED\tRETURNED")
			for _, u := range report.UserActivity {
				fmt.Fprintf(w, "%s\t%d\t%d\n", u.Email, u.BorrowedCount, u.ReturnedCount)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: previous month)")
	return cmd
}

func parseID(s string) (string, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("invalid id %q", s)
	}
	return strconv.FormatInt(id, 10), nil
}
