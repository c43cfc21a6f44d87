package kapowarr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/comicbridge/comicbridge/internal/domain"
	domainerrors "github.com/comicbridge/comicbridge/internal/errors"
	"github.com/comicbridge/comicbridge/internal/id"
	"github.com/comicbridge/comicbridge/internal/normalize"
	"github.com/comicbridge/comicbridge/internal/util"
)

const fileMode = 0o644

// issueTag matches an issue marker such as "#1" or "#001" in a filename.
var issueTag = regexp.MustCompile(`#\s*\d`)

// StoreFile writes an issue file into the volume's folder under the host
// root. It never overwrites a non-empty file: if the target exists, the body
// is closed unread and an AlreadyExists error carrying the path is returned.
// The file is written to a temporary name and moved into place once complete.
// In dry-run mode the body is discarded and the would-be path returned.
func (c *Client) StoreFile(ctx context.Context, destinationID, issueNumber string, file *domain.File) (string, error) {
	if file == nil || file.Body == nil {
		return "", wrapError("storeFile", destinationID, fmt.Errorf("%w: no file body", ErrInvalidInput))
	}
	defer file.Body.Close()

	dir, target, err := c.targetPath(ctx, destinationID, issueNumber, file.Name)
	if err != nil {
		return "", wrapError("storeFile", destinationID, err)
	}

	exists, err := nonEmptyFile(target)
	if err != nil {
		return "", wrapError("storeFile", destinationID, err)
	}
	if exists {
		return target, domainerrors.AlreadyExistsf("file already exists: %s", target)
	}

	if c.dryRun {
		c.logger.Info("dry run: would store file", "path", target, "issue", issueNumber)
		return target, nil
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", wrapError("storeFile", destinationID, fmt.Errorf("create folder: %w", err))
	}
	if err := writeAtomic(target, file.Body); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return target, domainerrors.AlreadyExistsf("file already exists: %s", target)
		}
		return "", wrapError("storeFile", destinationID, err)
	}

	c.logger.Debug("stored file", "path", target, "issue", issueNumber)
	return target, nil
}

// FileExists reports whether the issue file the source names sourceName is
// already stored for a volume, and returns the path it has or would have.
// Kapowarr lists a volume's files only after a scan, so the disk is checked.
func (c *Client) FileExists(ctx context.Context, destinationID, issueNumber, sourceName string) (string, bool, error) {
	name := path.Base(strings.ReplaceAll(sourceName, `\`, "/"))
	if name == "." || name == "/" {
		return "", false, nil
	}
	_, target, err := c.targetPath(ctx, destinationID, issueNumber, name)
	if err != nil {
		return "", false, wrapError("fileExists", destinationID, err)
	}
	exists, err := nonEmptyFile(target)
	if err != nil {
		return target, false, wrapError("fileExists", destinationID, err)
	}
	return target, exists, nil
}

// targetPath returns the host folder of a volume and the path an issue file
// named name is stored at inside it.
func (c *Client) targetPath(ctx context.Context, destinationID, issueNumber, name string) (dir, target string, err error) {
	dir, err = c.volumeDir(ctx, destinationID)
	if err != nil {
		return "", "", err
	}
	target = filepath.Join(dir, issueFilename(name, issueNumber))
	if err := c.withinRoot(target); err != nil {
		return "", "", err
	}
	return dir, target, nil
}

// volumeDir resolves the host directory for a volume.
func (c *Client) volumeDir(ctx context.Context, destinationID string) (string, error) {
	folder, ok := c.cachedFolder(destinationID)
	if !ok && !id.IsSynthetic(destinationID) {
		s, _, err := c.GetSeries(ctx, destinationID)
		if err != nil {
			return "", err
		}
		folder = s.Folder
	}
	if folder == "" {
		return "", ErrNoFolder
	}
	return c.HostPath(folder), nil
}

// HostPath maps a folder as Kapowarr reports it (inside its container) to
// the host path under Root. Folders outside the container root are taken
// as relative to Root.
func (c *Client) HostPath(folder string) string {
	folder = path.Clean("/" + strings.ReplaceAll(folder, `\`, "/"))
	rel := folder
	if folder == c.containerRoot || strings.HasPrefix(folder, c.containerRoot+"/") {
		rel = strings.TrimPrefix(folder, c.containerRoot)
	}
	rel = strings.TrimPrefix(rel, "/")
	return filepath.Join(c.root, filepath.FromSlash(rel))
}

// withinRoot rejects targets that resolve outside the configured root.
func (c *Client) withinRoot(target string) error {
	rel, err := filepath.Rel(filepath.Clean(c.root), filepath.Clean(target))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, target)
	}
	return nil
}

// issueFilename appends " #NNN" before the extension when the name does
// not already carry an issue marker.
func issueFilename(name, issueNumber string) string {
	name = util.SafeFilename(filepath.Base(name))
	if issueNumber == "" || issueTag.MatchString(name) {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s #%s%s", base, normalize.PadIssue(issueNumber), ext)
}

// nonEmptyFile reports whether a non-empty regular file exists at p.
func nonEmptyFile(p string) (bool, error) {
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat target: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("target is a directory: %s", p)
	}
	return info.Size() > 0, nil
}

// writeAtomic streams r into a temporary file beside target and moves it
// into place. An interrupted write leaves no file at target. An empty
// target left by an earlier run is replaced; a non-empty one is not.
func writeAtomic(target string, r io.Reader) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".comicbridge-*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
		}
		os.Remove(tmpName)
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if n == 0 {
		return ErrEmptyFile
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	if err = os.Chmod(tmpName, fileMode); err != nil {
		return fmt.Errorf("chmod file: %w", err)
	}

	// Link fails if target exists, so a concurrent writer is never clobbered.
	if err = os.Link(tmpName, target); err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrExist) {
		// Filesystems without hard links fall back to rename after a fresh check.
		if exists, statErr := nonEmptyFile(target); statErr == nil && !exists {
			if err = os.Rename(tmpName, target); err != nil {
				return fmt.Errorf("place file: %w", err)
			}
			return nil
		}
		return fmt.Errorf("place file: %w", err)
	}

	exists, statErr := nonEmptyFile(target)
	if statErr != nil {
		return statErr
	}
	if exists {
		return fs.ErrExist
	}
	if err = os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("replace empty file: %w", err)
	}
	return nil
}
