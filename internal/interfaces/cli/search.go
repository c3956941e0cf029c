package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/turtacn/trademark-search/internal/application/search"
	"github.com/turtacn/trademark-search/internal/domain/trademark"
	"github.com/turtacn/trademark-search/internal/infrastructure/monitoring/logging"
)

type searchFlags struct {
	status      string
	productCode string
	fromDate    string
	toDate      string
	dateType    string
	limit       int
	offset      int
}

// NewSearchCmd creates the search command.  The query is the joined
// positional arguments; no arguments lists every record.
func NewSearchCmd() *cobra.Command {
	f := &searchFlags{}
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search trademarks by name, initial consonants or similarity",
		Example: "  tmsearch search 스타벅스\n" +
			"  tmsearch search ㅅㅌㅂㅅ --status 등록\n" +
			"  tmsearch search 커피 --from 20200101 --to 20231231 --date-type registrationDate -o table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			return runSearch(cmd, cliCtx, strings.Join(args, " "), f)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.status, "status", "", "registration status filter (e.g. 등록, 출원)")
	fl.StringVar(&f.productCode, "product-code", "", "product classification code filter")
	fl.StringVar(&f.fromDate, "from", "", "start of date range (YYYYMMDD)")
	fl.StringVar(&f.toDate, "to", "", "end of date range (YYYYMMDD)")
	fl.StringVar(&f.dateType, "date-type", string(trademark.DateFieldApplication), "date the range applies to: applicationDate|registrationDate|publicationDate")
	fl.IntVar(&f.limit, "limit", 0, "page size (default search.default_limit)")
	fl.IntVar(&f.offset, "offset", 0, "number of ranked results to skip")
	return cmd
}

func runSearch(cmd *cobra.Command, cliCtx *CLIContext, text string, f *searchFlags) error {
	ctx, cancel := commandContext(cmd, cliCtx)
	defer cancel()

	app, err := NewApp(ctx, cliCtx.Config, cliCtx.Logger, appOptions{events: true, seed: true})
	if err != nil {
		return err
	}
	defer app.Close()

	limit := f.limit
	if limit == 0 {
		limit = app.Service.Config().DefaultLimit
	}
	q := search.Query{
		Text: text,
		Filters: trademark.FilterParams{
			Status:      f.status,
			ProductCode: f.productCode,
			FromDate:    f.fromDate,
			ToDate:      f.toDate,
			DateType:    f.dateType,
		},
		Offset: f.offset,
		Limit:  limit,
	}
	cliCtx.Logger.Debug("Running search", logging.String("query", text), logging.Int("limit", limit))

	page, err := app.Service.Search(ctx, q)
	if err != nil {
		return err
	}

	switch cliCtx.OutputFormat {
	case OutputJSON:
		return printJSON(cmd, page)
	case OutputTable:
		printMatchTable(cmd.OutOrStdout(), page.Results)
		printPageFooter(cmd.OutOrStdout(), page)
	default:
		printMatchText(cmd.OutOrStdout(), page)
	}
	return nil
}

func printMatchText(w io.Writer, page *search.ResultPage) {
	if len(page.Results) == 0 {
		fmt.Fprintln(w, "No trademarks found.")
		printPageFooter(w, page)
		return
	}
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	for i, m := range page.Results {
		t := m.Trademark
		fmt.Fprintf(w, "%3d. %s %s  [%s]  %s\n",
			page.Offset+i+1,
			bold(orDash(t.ProductName)),
			faint("("+orDash(t.ProductNameEng)+")"),
			orDash(t.RegisterStatus),
			t.ApplicationNumber)
		fmt.Fprintf(w, "     score %.3f  applied %s  codes %s\n",
			m.Score, orDash(t.ApplicationDate.String()), orDash(strings.Join(t.ProductMainCodes, ",")))
	}
	printPageFooter(w, page)
}

func printPageFooter(w io.Writer, page *search.ResultPage) {
	notes := []string{"route " + page.Route.String()}
	if page.Fallback {
		notes = append(notes, "fuzzy fallback")
	}
	if page.Approximate {
		notes = append(notes, color.YellowString("approximate"))
	}
	fmt.Fprintf(w, "\nShowing %d of %d (offset %d, %s)\n",
		len(page.Results), page.Total, page.Offset, strings.Join(notes, ", "))
}

func printMatchTable(w io.Writer, matches []trademark.Match) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Application No", "Name", "English Name", "Status", "Applied", "Codes", "Score"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	for _, m := range matches {
		t := m.Trademark
		table.Append([]string{
			t.ApplicationNumber,
			orDash(t.ProductName),
			orDash(t.ProductNameEng),
			orDash(t.RegisterStatus),
			orDash(t.ApplicationDate.String()),
			orDash(strings.Join(t.ProductMainCodes, ",")),
			strconv.FormatFloat(m.Score, 'f', 3, 64),
		})
	}
	table.Render()
}

// NewGetCmd creates the get command.
func NewGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <application-number>",
		Short: "Show one trademark by application number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			app, err := NewApp(ctx, cliCtx.Config, cliCtx.Logger, appOptions{seed: true})
			if err != nil {
				return err
			}
			defer app.Close()

			t, err := app.Service.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd, t)
			}
			printTrademark(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

func printTrademark(w io.Writer, t *trademark.Trademark) {
	rows := [][2]string{
		{"Application No", t.ApplicationNumber},
		{"Name", t.ProductName},
		{"English Name", t.ProductNameEng},
		{"Status", t.RegisterStatus},
		{"Application Date", t.ApplicationDate.String()},
		{"Publication No", t.PublicationNumber},
		{"Publication Date", t.PublicationDate.String()},
		{"Registration No", strings.Join(t.RegistrationNumber, ", ")},
		{"Registration Date", joinDates(t.RegistrationDate)},
		{"Registration Pub. No", t.RegistrationPubNumber},
		{"Registration Pub. Date", t.RegistrationPubDate.String()},
		{"International Reg. No", strings.Join(t.InternationalRegNumbers, ", ")},
		{"International Reg. Date", t.InternationalRegDate.String()},
		{"Priority Claim No", strings.Join(t.PriorityClaimNumList, ", ")},
		{"Priority Claim Date", joinDates(t.PriorityClaimDateList)},
		{"Main Codes", strings.Join(t.ProductMainCodes, ", ")},
		{"Sub Codes", strings.Join(t.ProductSubCodes, ", ")},
		{"Vienna Codes", strings.Join(t.ViennaCodeList, ", ")},
	}
	label := color.New(color.FgCyan).SprintFunc()
	for _, r := range rows {
		fmt.Fprintf(w, "%-24s %s\n", label(r[0]+":"), orDash(r[1]))
	}
}

func joinDates(ds []trademark.Date) string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.String())
	}
	return strings.Join(out, ", ")
}

// NewMetaCmd creates the meta command with its statuses and product-codes
// subcommands.
func NewMetaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "List filter values present in the register",
	}
	cmd.AddCommand(
		newMetaListCmd("statuses", "List distinct registration statuses", func(s search.Service) listFunc { return s.ListStatuses }),
		newMetaListCmd("product-codes", "List distinct product classification codes", func(s search.Service) listFunc { return s.ListProductCodes }),
	)
	return cmd
}

type listFunc func(ctx context.Context) ([]string, error)

func newMetaListCmd(use, short string, pick func(search.Service) listFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			app, err := NewApp(ctx, cliCtx.Config, cliCtx.Logger, appOptions{seed: true})
			if err != nil {
				return err
			}
			defer app.Close()

			values, err := pick(app.Service)(ctx)
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == OutputJSON {
				return printJSON(cmd, values)
			}
			for _, v := range values {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
}
