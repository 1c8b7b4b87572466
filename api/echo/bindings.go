package echoapi

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleni/backend/core"
	"github.com/shuleni/backend/core/attendance"
	excelsvc "github.com/shuleni/backend/services/excel"
)

var (
	dateParamLayout = "2006-01-02"
	importFileParam = "file"
)

// bindReportFilter reads the report query params: month, year, start_date and
// end_date (YYYY-MM-DD).
func bindReportFilter(ctx echo.Context) (attendance.ReportFilter, error) {
	var f attendance.ReportFilter
	var err error

	if v := ctx.QueryParam("month"); v != "" {
		if f.Month, err = strconv.Atoi(v); err != nil || f.Month < 1 || f.Month > 12 {
			return f, core.NewValidationError(nil, core.FieldError{Field: "month", Error: "must be a number between 1 and 12"})
		}
	}
	if v := ctx.QueryParam("year"); v != "" {
		if f.Year, err = strconv.Atoi(v); err != nil || f.Year < 1 {
			return f, core.NewValidationError(nil, core.FieldError{Field: "year", Error: "must be a positive number"})
		}
	}
	if v := ctx.QueryParam("start_date"); v != "" {
		if f.Start, err = time.Parse(dateParamLayout, v); err != nil {
			return f, core.NewValidationError(nil, core.FieldError{Field: "start_date", Error: "must be a date formatted as " + dateParamLayout})
		}
	}
	if v := ctx.QueryParam("end_date"); v != "" {
		if f.End, err = time.Parse(dateParamLayout, v); err != nil {
			return f, core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: "must be a date formatted as " + dateParamLayout})
		}
	}
	return f, nil
}

// importFile opens the spreadsheet of a multipart upload.
func importFile(ctx echo.Context) (multipart.File, error) {
	fh, err := ctx.FormFile(importFileParam)
	if err != nil {
		return nil, core.NewValidationError(nil, core.FieldError{Field: importFileParam, Error: "this field is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.Wrap(err, "opening uploaded file")
	}
	return f, nil
}

// sendWorkbook writes an xlsx buffer as a file download.
func sendWorkbook(ctx echo.Context, filename string, buf *bytes.Buffer) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, excelsvc.ContentType, buf.Bytes())
}
