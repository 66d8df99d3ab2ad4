package echoapi

import (
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/adz4needz/portal/core"
	"github.com/adz4needz/portal/core/file"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// attachmentIndex reads the ":idx" path parameter.
func attachmentIndex(ctx echo.Context) (int, error) {
	idx, err := strconv.Atoi(ctx.Param("idx"))
	if err != nil || idx < 0 {
		return 0, errHttpNotFound
	}
	return idx, nil
}

// serveAttachment writes the decoded content of a stored file. Legacy files have no content and yield a 404.
func serveAttachment(ctx echo.Context, a file.Attachment) error {
	data, ct, err := a.Content()
	if err != nil {
		if errors.Cause(err) == file.ErrNoContent {
			return err
		}
		return errors.Wrapf(err, "reading attachment %q", a.Name())
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": a.Name()})
	ctx.Response().Header().Set(echo.HeaderContentDisposition, disposition)
	return ctx.Blob(http.StatusOK, ct, data)
}
