package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-calendar/core"
	"github.com/trezcool/masomo-calendar/core/calendar"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf     *core.Config
	db       *sql.DB // nil with in-memory storage
	svc      calendar.ServiceInterface
	validate *validator.Validate
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a database migration command (up, down, status, redo, version...)")
	fmt.Fprintln(cli.out, "  token -sub ID [-name NAME] [-email EMAIL] [-admin] [-teacher] [-student] [-roles R1,R2] - issue an API token")
	fmt.Fprintln(cli.out, "  import -file PATH.xlsx - import events from a spreadsheet")
	fmt.Fprintln(cli.out, "  month [-year YEAR] [-month MONTH] - print a month's calendar")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenSub := tokenCmd.String("sub", "", "The token holder's ID.")
	tokenName := tokenCmd.String("name", "", "The token holder's name.")
	tokenEmail := tokenCmd.String("email", "", "The token holder's email address.")
	tokenAdmin := tokenCmd.Bool("admin", false, "Grant admin rights.")
	tokenTeacher := tokenCmd.Bool("teacher", false, "Grant teacher portal access.")
	tokenStudent := tokenCmd.Bool("student", false, "Grant student portal access.")
	tokenRoles := tokenCmd.String("roles", "", "Comma separated roles.")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "The xlsx file to import events from.")

	monthCmd := flag.NewFlagSet("month", flag.ExitOnError)
	monthYear := monthCmd.Int("year", 0, "The year. Defaults to the current one.")
	monthMonth := monthCmd.Int("month", 0, "The month (1-12). Defaults to the current one.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenSub == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(tokenIdentity(*tokenSub, *tokenName, *tokenEmail, *tokenRoles, *tokenAdmin, *tokenTeacher, *tokenStudent))
	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importEvents(*importFile)
	case "month":
		if err := monthCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *monthMonth < 0 || *monthMonth > 12 || *monthYear < 0 {
			monthCmd.Usage()
			return errHelp
		}
		now := cli.svc.Now()
		year, month := *monthYear, time.Month(*monthMonth)
		if year == 0 {
			year = now.Year()
		}
		if month == 0 {
			month = now.Month()
		}
		return cli.printMonth(year, month)
	default:
		cli.printUsage()
		return errHelp
	}
}

func splitRoles(roles string) []string {
	var res []string
	for _, role := range strings.Split(roles, ",") {
		if role = strings.TrimSpace(role); role != "" {
			res = append(res, role)
		}
	}
	return res
}
