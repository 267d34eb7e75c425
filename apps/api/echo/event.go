package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-calendar/core/calendar"
)

var errEvtNotFoundInCtx = errors.New("event object not found in echo.Context")

type eventApi struct {
	svc      calendar.ServiceInterface
	validate *validator.Validate
}

func registerEventAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := eventApi{
		svc:      deps.CalendarSvc,
		validate: deps.Validate,
	}

	eg := g.Group("/events", jwt)
	eg.GET("", api.query)
	eg.GET("/types", api.queryTypes)
	eg.POST("", api.create, adminMiddleware())
	eg.DELETE("", api.destroyMultiple, adminMiddleware())

	// detail endpoints
	dg := eg.Group("/:id", eventMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
}

// Handlers

func (api *eventApi) create(ctx echo.Context) error {
	var data calendar.NewEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEvent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ev, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating event")
	}
	return ctx.JSON(http.StatusCreated, ev)
}

func (api *eventApi) query(ctx echo.Context) error {
	filter := new(calendar.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []calendar.Event{})
	}
	filter.Clean()
	if err := api.validate.Struct(filter); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	events, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying events")
	}
	if events == nil {
		events = []calendar.Event{}
	}
	return ctx.JSON(http.StatusOK, events)
}

func (api *eventApi) queryTypes(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, calendar.Types)
}

func (api *eventApi) retrieve(ctx echo.Context) error {
	ev, ok := ctx.Get(objectContextKey).(calendar.Event)
	if !ok {
		return errors.Wrap(errEvtNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *eventApi) update(ctx echo.Context) error {
	ev, ok := ctx.Get(objectContextKey).(calendar.Event)
	if !ok {
		return errors.Wrap(errEvtNotFoundInCtx, "retrieving object from context")
	}

	var data calendar.UpdateEvent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEvent")
	}
	if err := data.Validate(ev, api.validate); err != nil {
		return err
	}

	ev, err := api.svc.Update(ctx.Request().Context(), ev.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating event")
	}
	return ctx.JSON(http.StatusOK, ev)
}

func (api *eventApi) destroy(ctx echo.Context) error {
	ev, ok := ctx.Get(objectContextKey).(calendar.Event)
	if !ok {
		return errors.Wrap(errEvtNotFoundInCtx, "retrieving object from context")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ev.ID); err != nil {
		return errors.Wrap(err, "deleting event")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *eventApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	// unknown IDs are ignored
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil && errors.Cause(err) != calendar.ErrNotFound {
		return errors.Wrap(err, "deleting events")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type DestroyMultipleRequest struct {
	IDs []string `query:"id"`
}
