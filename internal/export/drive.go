package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	dErrors "patchdesk/pkg/domain-errors"
)

// DriveClient saves full workbooks to the workspace drive service.
type DriveClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewDriveClient(baseURL string, logger *slog.Logger) *DriveClient {
	return &DriveClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

type driveSaveRequest struct {
	FileName string    `json:"file_name"`
	Workbook *Workbook `json:"workbook"`
}

// Save posts the workbook under the given filename. Drive saves always carry
// the full artifact; the clean variant is a download concern, not a drive one.
func (c *DriveClient) Save(ctx context.Context, workspaceID, fileName string, wb *Workbook) error {
	body, err := json.Marshal(driveSaveRequest{FileName: fileName, Workbook: wb})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encoding drive save request")
	}

	url := fmt.Sprintf("%s/api/v2.5/workspaces/%s/drive/save", c.baseURL, workspaceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "building drive save request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "drive save request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("drive save rejected",
			"workspace_id", workspaceID,
			"file_name", fileName,
			"status", resp.StatusCode,
		)
		return dErrors.New(dErrors.CodeInternal,
			fmt.Sprintf("drive save returned %d: %s", resp.StatusCode, string(detail)))
	}

	c.logger.Info("workbook saved to drive", "workspace_id", workspaceID, "file_name", fileName)
	return nil
}
