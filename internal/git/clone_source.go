package git

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/logger"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
)

var _ ports.RepositorySource = (*CloneSource)(nil)

const (
	DefaultCloneTimeout = 60 * time.Second
	credentialUser      = "oauth2"
	redactedCredential  = "***"
)

// CloneSource acquires repositories with a shallow `git clone` into a fresh
// temporary directory.
type CloneSource struct {
	timeout   time.Duration
	gitBinary string
	baseDir   string
}

type Option func(*CloneSource)

// WithGitBinary overrides the git executable.
func WithGitBinary(path string) Option {
	return func(s *CloneSource) {
		s.gitBinary = path
	}
}

// WithBaseDir sets where the temporary working directories are created.
func WithBaseDir(dir string) Option {
	return func(s *CloneSource) {
		s.baseDir = dir
	}
}

func NewCloneSource(timeout time.Duration, opts ...Option) *CloneSource {
	if timeout <= 0 {
		timeout = DefaultCloneTimeout
	}
	s := &CloneSource{
		timeout:   timeout,
		gitBinary: "git",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CloneSource) Acquire(ctx context.Context, req ports.AcquireRequest) (*ports.Workspace, error) {
	log := logger.FromContext(ctx)

	authURL, err := AuthenticatedURL(req.URL, req.Credential)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(s.baseDir, "mate-grade-")
	if err != nil {
		return nil, domainErrors.ErrWorkspace.WithError(err)
	}
	ws := ports.NewWorkspace(dir)

	cloneCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(cloneCtx, s.gitBinary, "clone", "--depth", "1", "--quiet", "--", authURL, dir)
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.WaitDelay = 5 * time.Second

	var stderr strings.Builder
	cmd.Stderr = &stderr

	start := time.Now()
	log.Debug("cloning repository", "repo", req.URL, "timeout", s.timeout.String())

	if err := cmd.Run(); err != nil {
		if cerr := ws.Close(); cerr != nil {
			log.Warn("could not remove working directory", "path", dir, "error", cerr)
		}

		if errors.Is(cloneCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, domainErrors.ErrCloneTimeout.
				WithContext("repo", req.URL).
				WithContext("timeout", s.timeout.String())
		}
		if ctx.Err() != nil {
			return nil, domainErrors.ErrClone.WithError(ctx.Err()).WithContext("repo", req.URL)
		}

		return nil, domainErrors.ErrClone.
			WithError(errors.New(redact(err.Error(), req.Credential))).
			WithContext("repo", req.URL).
			WithContext("stderr", redact(strings.TrimSpace(stderr.String()), req.Credential))
	}

	log.Debug("repository cloned", "repo", req.URL, "duration_ms", time.Since(start).Milliseconds())
	return ws, nil
}

// AuthenticatedURL embeds the credential into an https repository URL.
// file:// URLs are passed through untouched for local mirrors.
func AuthenticatedURL(rawURL, credential string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", domainErrors.ErrInvalidRepoURL.WithError(errors.New("unparseable URL"))
	}

	switch u.Scheme {
	case "https":
		if u.Host == "" {
			return "", domainErrors.ErrInvalidRepoURL.WithContext("repo", rawURL)
		}
		if credential != "" {
			u.User = url.UserPassword(credentialUser, credential)
		}
		return u.String(), nil
	case "file":
		return u.String(), nil
	default:
		return "", domainErrors.ErrInvalidRepoURL.
			WithError(fmt.Errorf("unsupported scheme %q", u.Scheme)).
			WithContext("repo", rawURL)
	}
}

func redact(s, credential string) string {
	if credential == "" {
		return s
	}
	s = strings.ReplaceAll(s, credential, redactedCredential)
	if escaped := url.QueryEscape(credential); escaped != credential {
		s = strings.ReplaceAll(s, escaped, redactedCredential)
	}
	return s
}
