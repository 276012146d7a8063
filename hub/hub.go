// Package hub - Bezug und Cache vortrainierter Modell-Artefakte
//
// Dieses Modul enthaelt:
// - Fetch: Laedt ein Artefakt in den Cache und verifiziert den Digest
// - CachePath: Gibt den Cache-Pfad eines Artefakts zurueck
//
// Downloads sind atomar (Tempdatei plus Rename), abgebrochene Downloads
// werden ueber Range-Requests fortgesetzt, fehlgeschlagene Versuche
// werden begrenzt wiederholt. Der sha256-Digest wird vor dem Rename
// in den Cache geprueft.
package hub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nlpgo/bert/envconfig"
	"github.com/nlpgo/bert/model"
)

// Download-Konstanten
const (
	DefaultChunkSize       = 1024 * 1024 // 1 MB
	MaxDownloadRetries     = 3
	DownloadRetryDelay     = 2 * time.Second
	ProgressUpdateInterval = 100 * time.Millisecond
)

// Hub-Fehler
var (
	ErrOffline       = errors.New("hub: offline mode, artifact not in cache")
	ErrBadDigest     = errors.New("hub: malformed digest")
	ErrUnexpectedEOF = errors.New("hub: server returned less data than announced")
)

// ProgressCallback wird waehrend des Downloads aufgerufen
type ProgressCallback func(downloaded, total int64)

// FetchOption konfiguriert einen Fetch
type FetchOption func(*fetchConfig)

type fetchConfig struct {
	progressFn ProgressCallback
	httpClient *http.Client
}

// WithProgress setzt den Progress-Callback
func WithProgress(fn ProgressCallback) FetchOption {
	return func(cfg *fetchConfig) { cfg.progressFn = fn }
}

// WithHTTPClient setzt den HTTP-Client
func WithHTTPClient(c *http.Client) FetchOption {
	return func(cfg *fetchConfig) { cfg.httpClient = c }
}

// CachePath gibt den lokalen Cache-Pfad eines Artefakts zurueck
func CachePath(name string) string {
	return filepath.Join(envconfig.CacheDir(), "models", name, "model.safetensors")
}

// Fetch laedt das Artefakt eines Modells in den Cache und gibt den
// lokalen Pfad zurueck. Ein vorhandenes Artefakt mit gueltigem Digest
// wird ohne Netzwerk-Zugriff wiederverwendet.
func Fetch(ctx context.Context, name, url, digest string, opts ...FetchOption) (string, error) {
	cfg := &fetchConfig{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(cfg)
	}

	localPath := CachePath(name)
	if _, err := os.Stat(localPath); err == nil {
		if err := verifyDigest(localPath, digest); err == nil {
			slog.Debug("artefakt aus cache", "model", name, "path", localPath)
			return localPath, nil
		}
		slog.Warn("cache-artefakt mit ungueltigem digest, lade neu", "model", name, "path", localPath)
		if err := os.Remove(localPath); err != nil {
			return "", err
		}
	}

	if envconfig.Offline() {
		return "", fmt.Errorf("%w: %s", ErrOffline, name)
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", err
	}

	tmpPath := localPath + ".download"
	var lastErr error
	for attempt := 0; attempt < MaxDownloadRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("wiederhole download", "model", name, "attempt", attempt+1, "err", lastErr)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(DownloadRetryDelay):
			}
		}
		if err := doDownload(ctx, cfg, url, tmpPath); err != nil {
			lastErr = err
			continue
		}

		if err := verifyDigest(tmpPath, digest); err != nil {
			os.Remove(tmpPath)
			return "", err
		}
		if err := os.Rename(tmpPath, localPath); err != nil {
			return "", err
		}

		slog.Info("artefakt geladen", "model", name, "path", localPath)
		return localPath, nil
	}
	return "", fmt.Errorf("download nach %d versuchen fehlgeschlagen: %w", MaxDownloadRetries, lastErr)
}

// doDownload laedt die URL in tmpPath. Eine vorhandene Tempdatei wird
// per Range-Request fortgesetzt, sofern der Server das unterstuetzt.
func doDownload(ctx context.Context, cfg *fetchConfig, url, tmpPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	var existingSize int64
	if stat, err := os.Stat(tmpPath); err == nil {
		existingSize = stat.Size()
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", existingSize))
	}

	resp, err := cfg.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK && existingSize > 0:
		// Server ignoriert Range: von vorn beginnen
		existingSize = 0
		os.Remove(tmpPath)
	case resp.StatusCode == http.StatusOK, resp.StatusCode == http.StatusPartialContent:
	default:
		return fmt.Errorf("hub: unexpected status %s for %s", resp.Status, url)
	}

	// Ohne Content-Length (chunked transfer) bleibt die Gesamtgroesse
	// unbekannt und wird als -1 gemeldet
	totalSize := int64(-1)
	if resp.ContentLength >= 0 {
		totalSize = existingSize + resp.ContentLength
	}

	flags := os.O_WRONLY | os.O_CREATE
	if existingSize > 0 {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(tmpPath, flags, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	downloaded := existingSize
	lastUpdate := time.Now()
	updateProgress := func(final bool) {
		if cfg.progressFn == nil {
			return
		}
		now := time.Now()
		if final || now.Sub(lastUpdate) >= ProgressUpdateInterval {
			cfg.progressFn(downloaded, totalSize)
			lastUpdate = now
		}
	}

	buf := make([]byte, DefaultChunkSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			downloaded += int64(n)
			updateProgress(false)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if totalSize >= 0 && downloaded < totalSize {
		return fmt.Errorf("%w: %d von %d bytes", ErrUnexpectedEOF, downloaded, totalSize)
	}

	updateProgress(true)
	return file.Close()
}

// verifyDigest prueft den sha256-Digest einer Datei
func verifyDigest(path, digest string) error {
	want, ok := strings.CutPrefix(digest, "sha256:")
	if !ok {
		return fmt.Errorf("%w %q", ErrBadDigest, digest)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return err
	}

	got := hex.EncodeToString(h.Sum(nil))
	if got != want {
		return &model.IntegrityError{Path: path, Want: digest, Got: "sha256:" + got}
	}
	return nil
}
