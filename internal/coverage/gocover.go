package coverage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/tools/cover"

	"github.com/dkoosis/testrules/internal/inspect"
)

var (
	// ErrUnavailable means the instrumentation tool cannot be used.
	ErrUnavailable = errors.New("coverage instrumentation unavailable")
	// ErrSessionActive is returned by Start while another session is open.
	ErrSessionActive = errors.New("coverage session already active")
)

// Instrument starts coverage sessions.
type Instrument interface {
	Start(ctx context.Context) (Session, error)
}

// Session is one active coverage window. Close must be called on every
// path once Start succeeded.
type Session interface {
	// ProfilePath is where the run of m writes its profile.
	ProfilePath(m inspect.Method) string
	// Stop collects the profiles written so far into a Report.
	Stop(ctx context.Context) (*Report, error)
	// WriteHTML renders the collected profile into dir and returns the
	// path of the entry page. Valid after Stop.
	WriteHTML(ctx context.Context, dir string) (string, error)
	Close() error
}

// GoCover instruments runs with go test -coverprofile.
type GoCover struct {
	GoBinary   string
	Root       string
	ModulePath string
	Command    func(ctx context.Context, name string, args ...string) *exec.Cmd
	LookPath   func(string) (string, error)
	Logger     *slog.Logger

	mu     sync.Mutex
	active bool
}

// NewGoCover returns an Instrument using the go toolchain at goBinary.
func NewGoCover(goBinary, root, modulePath string, logger *slog.Logger) *GoCover {
	if goBinary == "" {
		goBinary = "go"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &GoCover{
		GoBinary:   goBinary,
		Root:       root,
		ModulePath: modulePath,
		Command:    exec.CommandContext,
		LookPath:   exec.LookPath,
		Logger:     logger,
	}
}

// Start opens a session backed by a temporary profile directory.
func (g *GoCover) Start(_ context.Context) (Session, error) {
	if _, err := g.LookPath(g.GoBinary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		return nil, ErrSessionActive
	}
	dir, err := os.MkdirTemp("", "testrules-cover-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	g.active = true
	g.Logger.Debug("coverage session started", "dir", dir)
	return &goSession{owner: g, dir: dir}, nil
}

func (g *GoCover) release() {
	g.mu.Lock()
	g.active = false
	g.mu.Unlock()
}

type goSession struct {
	owner    *GoCover
	dir      string
	profiles []string
	merged   string
	closed   bool
}

func (s *goSession) ProfilePath(m inspect.Method) string {
	p := filepath.Join(s.dir, fmt.Sprintf("%04d.out", len(s.profiles)))
	s.profiles = append(s.profiles, p)
	return p
}

func (s *goSession) Stop(_ context.Context) (*Report, error) {
	var sets [][]*cover.Profile
	for _, p := range s.profiles {
		// Methods that failed to build leave no profile behind.
		if _, err := os.Stat(p); err != nil {
			continue
		}
		ps, err := cover.ParseProfiles(p)
		if err != nil {
			s.owner.Logger.Warn("skipping unreadable coverage profile", "path", p, "error", err)
			continue
		}
		sets = append(sets, ps)
	}
	merged := merge(sets)

	s.merged = filepath.Join(s.dir, "merged.out")
	if err := os.WriteFile(s.merged, []byte(writeProfile(merged)), 0o600); err != nil {
		return nil, fmt.Errorf("write merged profile: %w", err)
	}
	return NewReport(merged, s.owner.ModulePath), nil
}

func (s *goSession) WriteHTML(ctx context.Context, dir string) (string, error) {
	if s.merged == "" {
		return "", errors.New("coverage session not stopped")
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.owner.Root, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create html dir: %w", err)
	}
	out := filepath.Join(dir, "index.html")

	cmd := s.owner.Command(ctx, s.owner.GoBinary, "tool", "cover", "-html="+s.merged, "-o", out)
	cmd.Dir = s.owner.Root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("go tool cover: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func (s *goSession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.owner.release()
	return os.RemoveAll(s.dir)
}
