package kapowarr

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/comicbridge/comicbridge/internal/id"
)

// Task commands understood by /api/system/tasks.
const (
	TaskRefreshAndScan = "refresh_and_scan"
	TaskMassRename     = "mass_rename"
)

// RefreshScan asks Kapowarr to refresh a volume and pick up new files.
func (c *Client) RefreshScan(ctx context.Context, destinationID string) error {
	return c.runTask(ctx, TaskRefreshAndScan, destinationID)
}

// MassRename asks Kapowarr to rename a volume's files to its naming scheme.
func (c *Client) MassRename(ctx context.Context, destinationID string) error {
	return c.runTask(ctx, TaskMassRename, destinationID)
}

func (c *Client) runTask(ctx context.Context, cmd, destinationID string) error {
	if c.dryRun || id.IsSynthetic(destinationID) {
		c.logger.Info("dry run: would run task", "cmd", cmd, "volume_id", destinationID)
		return nil
	}

	volumeID, err := strconv.Atoi(destinationID)
	if err != nil {
		return wrapError(cmd, destinationID, fmt.Errorf("%w: volume id %q is not numeric", ErrInvalidInput, destinationID))
	}

	var result taskResult
	if err := c.doRequest(ctx, http.MethodPost, "system/tasks", taskRequest{Cmd: cmd, VolumeID: volumeID}, &result); err != nil {
		return wrapError(cmd, destinationID, err)
	}

	c.logger.Debug("kapowarr task queued", "cmd", cmd, "volume_id", destinationID, "task_id", string(result.ID))
	return nil
}
