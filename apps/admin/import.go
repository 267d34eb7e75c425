package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	exportsvc "github.com/trezcool/masomo-calendar/services/export"
)

var errInvalidRows = errors.New("invalid rows, nothing imported")

// importEvents creates the events of an xlsx workbook. Nothing is imported unless every row is valid.
func (cli *commandLine) importEvents(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening file")
	}
	defer func() { _ = f.Close() }()

	events, err := exportsvc.ReadEvents(f)
	if err != nil {
		return err
	}

	var invalid bool
	for i := range events {
		if err := events[i].Validate(cli.validate); err != nil {
			invalid = true
			fmt.Fprintf(cli.out, "row %d: %s\n", i+2, describeErr(err))
		}
	}
	if invalid {
		return errInvalidRows
	}

	ctx := context.Background()
	for _, ne := range events {
		if _, err := cli.svc.Create(ctx, ne); err != nil {
			return errors.Wrapf(err, "creating event %q", ne.Title)
		}
	}
	fmt.Fprintf(cli.out, "imported %d events\n", len(events))
	return nil
}

func describeErr(err error) string {
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	flds := make([]string, 0, len(vErrs))
	for _, vErr := range vErrs {
		flds = append(flds, fmt.Sprintf("%s (%s)", vErr.Field(), vErr.Tag()))
	}
	return "invalid " + strings.Join(flds, ", ")
}
