package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mbp16/travelnote/internal/metrics"
)

// exportSnapshot streams an export of the store. format=json yields the plain
// document, format=archive (the default) yields a zip bundling photos.
// Repeatable trip query parameters narrow the export; none means everything.
func (s *Server) exportSnapshot(c echo.Context) error {
	format := c.QueryParam("format")
	if format == "" {
		format = "archive"
	}

	var tripIDs []int64
	if err := echo.QueryParamsBinder(c).Int64s("trip", &tripIDs).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid trip parameter")
	}

	ctx := c.Request().Context()
	stamp := time.Now().Format("20060102-150405")

	switch format {
	case "json":
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=travelnote-%s.json", stamp))
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c.Response().WriteHeader(http.StatusOK)
		if err := s.exporter.WriteDocument(ctx, c.Response(), tripIDs); err != nil {
			metrics.Exports.WithLabelValues(format, "error").Inc()
			return err
		}
	case "archive":
		c.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf("attachment; filename=travelnote-%s.zip", stamp))
		c.Response().Header().Set(echo.HeaderContentType, "application/zip")
		c.Response().WriteHeader(http.StatusOK)
		if err := s.exporter.WriteArchive(ctx, c.Response(), tripIDs); err != nil {
			metrics.Exports.WithLabelValues(format, "error").Inc()
			return err
		}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "format must be json or archive")
	}

	metrics.Exports.WithLabelValues(format, "ok").Inc()
	return nil
}

// importSnapshot destructively replaces the store with the posted snapshot,
// archive or plain JSON. A document that cannot be parsed leaves the store
// untouched and reports 400.
func (s *Server) importSnapshot(c echo.Context) error {
	result, err := s.importer.Import(c.Request().Context(), c.Request().Body)
	if err != nil {
		metrics.Imports.WithLabelValues("error").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	metrics.Imports.WithLabelValues("ok").Inc()
	metrics.ImportSkippedRecords.Add(float64(result.SkippedPayments + result.SkippedShares))
	return c.JSON(http.StatusOK, result)
}

// resetStore wipes every trip and clears the active selection.
func (s *Server) resetStore(c echo.Context) error {
	if err := s.store.ResetAll(c.Request().Context()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
