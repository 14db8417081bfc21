package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/logger"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
	"github.com/Tomas-vilte/MateGrade/internal/regex"
	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

var (
	_ ports.RepositorySource = (*ContentsSource)(nil)
	_ ports.FileFetcher      = (*ContentsSource)(nil)
)

const DefaultTimeout = 60 * time.Second

type RepositoriesService interface {
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error)
}

// ContentsSource reads repositories through the GitHub contents API. It only
// downloads the requested subfolder, so large submissions cost one request
// per file instead of a full clone.
type ContentsSource struct {
	newService func(credential string) RepositoriesService
	baseDir    string
	timeout    time.Duration
}

// NewContentsSource bounds every acquisition and fetch by timeout;
// zero or negative means DefaultTimeout.
func NewContentsSource(timeout time.Duration) *ContentsSource {
	return &ContentsSource{
		timeout: normalizeTimeout(timeout),
		newService: func(credential string) RepositoriesService {
			var httpClient *http.Client
			if credential != "" {
				ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: credential})
				httpClient = oauth2.NewClient(context.Background(), ts)
			}
			return github.NewClient(httpClient).Repositories
		},
	}
}

// NewContentsSourceWithService is used by tests to inject the API.
func NewContentsSourceWithService(service RepositoriesService, baseDir string, timeout time.Duration) *ContentsSource {
	return &ContentsSource{
		newService: func(string) RepositoriesService { return service },
		baseDir:    baseDir,
		timeout:    normalizeTimeout(timeout),
	}
}

func normalizeTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}

// ParseRepoURL extracts owner and repository name from an https GitHub URL.
func ParseRepoURL(repoURL string) (owner, repo string, err error) {
	matches := regex.HTTPSRepo.FindStringSubmatch(strings.TrimSpace(repoURL))
	if len(matches) != 4 {
		return "", "", domainErrors.ErrInvalidRepoURL.WithContext("repo", repoURL)
	}
	return matches[2], matches[3], nil
}

func (cs *ContentsSource) Acquire(ctx context.Context, req ports.AcquireRequest) (*ports.Workspace, error) {
	owner, repo, err := ParseRepoURL(req.URL)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(cs.baseDir, "mate-grade-")
	if err != nil {
		return nil, domainErrors.ErrWorkspace.WithError(err)
	}
	ws := ports.NewWorkspace(dir)

	downloadCtx, cancel := context.WithTimeout(ctx, cs.timeout)
	defer cancel()

	service := cs.newService(req.Credential)
	count, err := cs.download(downloadCtx, service, owner, repo, strings.Trim(req.Subfolder, "/"), dir)
	if err != nil {
		if cerr := ws.Close(); cerr != nil {
			logger.Warn(ctx, "could not remove working directory", "path", dir, "error", cerr)
		}
		if timedOut(ctx, downloadCtx) {
			return nil, domainErrors.ErrCloneTimeout.
				WithContext("repo", req.URL).
				WithContext("timeout", cs.timeout.String())
		}
		return nil, err
	}

	logger.Debug(ctx, "repository contents downloaded",
		"repo", req.URL,
		"folder", req.Subfolder,
		"count", count)
	return ws, nil
}

func (cs *ContentsSource) FetchFile(ctx context.Context, filePath, repoURL, credential string) ([]byte, error) {
	owner, repo, err := ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, cs.timeout)
	defer cancel()

	service := cs.newService(credential)
	fileContent, _, resp, err := service.GetContents(fetchCtx, owner, repo, filePath, nil)
	if err != nil {
		if timedOut(ctx, fetchCtx) {
			return nil, domainErrors.ErrCloneTimeout.
				WithContext("path", filePath).
				WithContext("timeout", cs.timeout.String())
		}
		return nil, mapError(resp, err, filePath)
	}
	if fileContent == nil {
		return nil, domainErrors.ErrRepoNotFound.
			WithError(fmt.Errorf("%s is a directory", filePath)).
			WithContext("path", filePath)
	}

	return decodeContent(fileContent)
}

// timedOut reports whether inner hit its own deadline rather than the caller
// cancelling outer.
func timedOut(outer, inner context.Context) bool {
	return errors.Is(inner.Err(), context.DeadlineExceeded) && outer.Err() == nil
}

func (cs *ContentsSource) download(ctx context.Context, service RepositoriesService, owner, repo, dirPath, dest string) (int, error) {
	fileContent, entries, resp, err := service.GetContents(ctx, owner, repo, dirPath, nil)
	if err != nil {
		return 0, mapError(resp, err, dirPath)
	}

	if fileContent != nil {
		return 1, writeContent(dest, fileContent)
	}

	count := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return count, domainErrors.ErrRepoNetwork.WithError(err)
		}
		switch entry.GetType() {
		case "dir":
			n, err := cs.download(ctx, service, owner, repo, entry.GetPath(), dest)
			if err != nil {
				return count, err
			}
			count += n
		case "file":
			file, _, resp, err := service.GetContents(ctx, owner, repo, entry.GetPath(), nil)
			if err != nil {
				return count, mapError(resp, err, entry.GetPath())
			}
			if file == nil {
				continue
			}
			if err := writeContent(dest, file); err != nil {
				return count, err
			}
			count++
		default:
			logger.Debug(ctx, "skipping repository entry", "path", entry.GetPath(), "type", entry.GetType())
		}
	}

	return count, nil
}

func writeContent(dest string, content *github.RepositoryContent) error {
	rel := path.Clean(content.GetPath())
	if !filepath.IsLocal(rel) {
		return domainErrors.ErrWorkspace.
			WithError(fmt.Errorf("path escapes working directory: %s", content.GetPath()))
	}

	data, err := decodeContent(content)
	if err != nil {
		return err
	}

	target := filepath.Join(dest, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return domainErrors.ErrWorkspace.WithError(err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return domainErrors.ErrWorkspace.WithError(err)
	}
	return nil
}

func decodeContent(content *github.RepositoryContent) ([]byte, error) {
	if content.Content == nil {
		return nil, nil
	}
	raw := *content.Content

	if content.GetEncoding() == "base64" {
		data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(raw, "\n", ""))
		if err != nil {
			return nil, domainErrors.ErrRepoNetwork.
				WithError(fmt.Errorf("error decoding file content: %w", err)).
				WithContext("path", content.GetPath())
		}
		return data, nil
	}

	return []byte(raw), nil
}

func mapError(resp *github.Response, err error, filePath string) error {
	if resp != nil && resp.Response != nil {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return domainErrors.ErrRepoNotFound.WithContext("path", filePath)
		case http.StatusUnauthorized, http.StatusForbidden:
			return domainErrors.ErrRepoForbidden.
				WithContext("path", filePath).
				WithContext("status_code", resp.StatusCode)
		}
	}
	return domainErrors.ErrRepoNetwork.WithError(err).WithContext("path", filePath)
}
