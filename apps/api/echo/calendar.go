package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-calendar/core"
	"github.com/trezcool/masomo-calendar/core/calendar"
	exportsvc "github.com/trezcool/masomo-calendar/services/export"
)

type calendarApi struct {
	svc      calendar.ServiceInterface
	validate *validator.Validate
}

func registerCalendarAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := calendarApi{
		svc:      deps.CalendarSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/calendar", jwt)
	cg.GET("/month", api.month)
	cg.GET("/week", api.week)
	cg.GET("/today", api.today)
	cg.GET("/export.ics", api.exportICS)
	cg.GET("/export.xlsx", api.exportXLSX)
	cg.POST("/export/email", api.emailExport)
}

// Handlers

func (api *calendarApi) month(ctx echo.Context) error {
	var data MonthRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MonthRequest")
	}
	if err := data.Validate(api.validate, api.svc.Now()); err != nil {
		return err
	}

	m, err := api.svc.Month(ctx.Request().Context(), data.Year, time.Month(data.Month), &data.QueryFilter)
	if err != nil {
		return errors.Wrap(err, "building month")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *calendarApi) week(ctx echo.Context) error {
	var data WeekRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to WeekRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	w, err := api.svc.Week(ctx.Request().Context(), data.Date, &data.QueryFilter)
	if err != nil {
		return errors.Wrap(err, "building week")
	}
	return ctx.JSON(http.StatusOK, w)
}

func (api *calendarApi) today(ctx echo.Context) error {
	t, err := api.svc.Today(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting today's events")
	}
	if t.Events == nil {
		t.Events = []calendar.Event{}
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *calendarApi) bindFilter(ctx echo.Context) (*calendar.QueryFilter, error) {
	filter := new(calendar.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return nil, errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()
	if err := api.validate.Struct(filter); err != nil {
		return nil, err
	}
	return filter, nil
}

func (api *calendarApi) exportICS(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}

	content, err := api.svc.ExportICS(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "exporting events")
	}
	setAttachment(ctx, calendar.ICSFilename)
	return ctx.Blob(http.StatusOK, calendar.ICSContentType, []byte(content))
}

func (api *calendarApi) exportXLSX(ctx echo.Context) error {
	filter, err := api.bindFilter(ctx)
	if err != nil {
		return err
	}

	events, err := api.svc.Query(ctx.Request().Context(), filter, nil)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	var buf bytes.Buffer
	if err := exportsvc.WriteEvents(&buf, events); err != nil {
		return errors.Wrap(err, "exporting events")
	}
	setAttachment(ctx, exportsvc.XLSXFilename)
	return ctx.Blob(http.StatusOK, exportsvc.XLSXContentType, buf.Bytes())
}

func (api *calendarApi) emailExport(ctx echo.Context) error {
	var data EmailExportRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EmailExportRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	count, err := api.svc.EmailExport(ctx.Request().Context(), data.Filter(), mail.Address{Name: data.Name, Address: data.Email})
	if err != nil {
		return errors.Wrap(err, "emailing export")
	}
	return ctx.JSON(http.StatusAccepted, EmailExportResponse{
		Success: fmt.Sprintf("Your calendar will be sent to %s shortly.", data.Email),
		Count:   count,
	})
}

func setAttachment(ctx echo.Context, filename string) {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
}

type (
	MonthRequest struct {
		Year  int `query:"year" validate:"omitempty,min=1,max=9999"`
		Month int `query:"month" validate:"omitempty,min=1,max=12"`
		calendar.QueryFilter
	}

	WeekRequest struct {
		Date string `query:"date" validate:"required,isodate"`
		calendar.QueryFilter
	}

	EmailExportRequest struct {
		Name     string               `json:"name"`
		Email    string               `json:"email" validate:"required,email"`
		Search   string               `json:"search"`
		Types    []calendar.EventType `json:"type"`
		DateFrom string               `json:"date_from" validate:"omitempty,isodate"`
		DateTo   string               `json:"date_to" validate:"omitempty,isodate"`
	}

	EmailExportResponse struct {
		Success string `json:"success"`
		Count   int    `json:"count"`
	}
)

// Validate defaults missing year & month to the ones of now.
func (mr *MonthRequest) Validate(validate *validator.Validate, now time.Time) error {
	mr.QueryFilter.Clean()
	if err := validate.Struct(mr); err != nil {
		return err
	}
	if mr.Year == 0 {
		mr.Year = now.Year()
	}
	if mr.Month == 0 {
		mr.Month = int(now.Month())
	}
	return nil
}

func (wr *WeekRequest) Validate(validate *validator.Validate) error {
	wr.Date = core.CleanString(wr.Date)
	wr.QueryFilter.Clean()
	return validate.Struct(wr)
}

func (er *EmailExportRequest) Validate(validate *validator.Validate) error {
	er.Name = core.CleanString(er.Name)
	er.Email = core.CleanString(er.Email, true /* lower */)
	er.DateFrom = core.CleanString(er.DateFrom)
	er.DateTo = core.CleanString(er.DateTo)
	return validate.Struct(er)
}

func (er *EmailExportRequest) Filter() *calendar.QueryFilter {
	filter := &calendar.QueryFilter{
		Search:   er.Search,
		Types:    er.Types,
		DateFrom: er.DateFrom,
		DateTo:   er.DateTo,
	}
	filter.Clean()
	return filter
}
