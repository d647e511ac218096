package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lookup-erp/lookup/pkg/models"
)

// Report forwards a free-text question to the reporting endpoint and returns
// its answer unchanged.
func (c *Client) Report(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(models.ReportRequest{Query: question})
	if err != nil {
		return "", fmt.Errorf("encode report request: %w", err)
	}

	token, err := c.bearer(ctx)
	if err != nil {
		return "", err
	}

	res, err := c.do(ctx, http.MethodPost, c.cfg.Report, token, nil, body)
	if err != nil {
		return "", fmt.Errorf("report request: %w", err)
	}
	if !success(res.statusCode) {
		return "", statusError(res)
	}

	var out models.ReportResponse
	if err := json.Unmarshal(res.body, &out); err != nil {
		return "", &ParseError{Domain: "report", Index: -1, Reason: "expected report object", Err: err}
	}
	return out.Answer, nil
}
