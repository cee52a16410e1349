package workshop

import (
	"archive/zip"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// minArchiveBytes rejects mirrors that answer 200 with a small error
	// page instead of the payload.
	minArchiveBytes = 10000
)

// acceptedArchiveTypes are the content types a mirror probe may declare.
var acceptedArchiveTypes = map[string]struct{}{
	"application/zip":          {},
	"application/octet-stream": {},
}

// defaultMirrors is the fixed, ordered fallback chain of payload hosts.
// The full download URL is the base plus "<id>.zip".
func defaultMirrors() []string {
	parts := []string{"cw03361255710", "cw85745255710", "ca40929255710", "ci03361255710"}

	var mirrors []string
	for _, p := range parts {
		mirrors = append(mirrors, fmt.Sprintf("https://cdn.ggntw.com/%s/", p))
	}
	for _, p := range parts {
		mirrors = append(mirrors, fmt.Sprintf("https://cdn.steamworkshopdownloader.ru/%s/", p))
	}
	mirrors = append(mirrors, "http://workshop.abcvg.info/archive/255710/")
	for i := 1; i <= 9; i++ {
		mirrors = append(mirrors, fmt.Sprintf("http://workshop%d.abcvg.info/archive/255710/", i))
	}
	return mirrors
}

// Download acquires and installs the payload for this asset. Already
// installed and not stale is a no-op success. Mirrors are probed strictly in
// order; the first one whose declared content type and length pass
// validation wins.
func (a *Asset) Download() bool {
	if a.IsInstalled && !a.NeedUpdate {
		return true
	}

	e := a.eng
	log := e.log.With(zap.Int64("steam_id", a.SteamID))
	root := e.paths.rootFor(a.Kind)

	archive, ok := e.fetchArchive(a.SteamID, root, log)
	if !ok {
		return false
	}
	defer os.Remove(archive)

	if err := extractZip(archive, root); err != nil {
		log.Errorw("Failed to extract archive", zap.Error(err))
		return false
	}

	installedAt := time.Now()
	if err := e.store.MarkInstalled(a.SteamID, installedAt); err != nil {
		log.Errorw("Failed to record install", zap.Error(err))
		return false
	}

	a.IsInstalled = true
	a.NeedUpdate = false
	a.TimeLocal = installedAt
	log.Infow("Asset installed", zap.String("path", a.Path))
	return true
}

// fetchArchive walks the mirror chain and streams the first validated
// response to a uniquely named temporary file in the destination root.
func (e *Engine) fetchArchive(id int64, root string, log *zap.SugaredLogger) (string, bool) {
	for _, base := range e.mirrors {
		downloadURL := fmt.Sprintf("%s%d.zip", base, id)
		if !e.probeMirror(downloadURL) {
			continue
		}

		tmp := filepath.Join(root, fmt.Sprintf("%d-%s.zip", id, uuid.NewString()))
		if err := e.streamToFile(downloadURL, tmp); err != nil {
			log.Warnw("Failed to download archive",
				zap.String("url", downloadURL),
				zap.Error(err),
			)
			os.Remove(tmp)
			return "", false
		}
		return tmp, true
	}

	log.Warnw("No mirror passed validation")
	return "", false
}

// probeMirror issues a metadata-only request and checks the declared content
// type and length before any download happens.
func (e *Engine) probeMirror(downloadURL string) bool {
	resp, err := e.probe.Head(downloadURL)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	if _, ok := acceptedArchiveTypes[mediaType]; !ok {
		return false
	}
	return resp.ContentLength >= minArchiveBytes
}

func (e *Engine) streamToFile(downloadURL, dest string) error {
	resp, err := e.fetch.Get(downloadURL)
	if err != nil {
		return fmt.Errorf("failed to start download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

// extractZip unpacks every entry of the archive into destRoot, refusing
// entries whose path would escape it.
func extractZip(archivePath, destRoot string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	cleanRoot := filepath.Clean(destRoot)
	for _, file := range reader.File {
		target := filepath.Join(cleanRoot, file.Name)
		if !strings.HasPrefix(target, cleanRoot+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes extraction root", file.Name)
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory %q: %w", target, err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %q: %w", target, err)
		}
		if err := extractZipEntry(file, target); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(file *zip.File, target string) error {
	in, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %q: %w", file.Name, err)
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %q: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to write %q: %w", target, err)
	}
	return nil
}
