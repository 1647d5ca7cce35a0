package stitch

import (
	"os"

	"github.com/trackstitch/trackstitch/pkg/stitch/codec"
	"github.com/trackstitch/trackstitch/pkg/stitch/storage"
	"github.com/trackstitch/trackstitch/pkg/stitch/transport"
)

// Config collects everything a Service needs. Zero values fall back to
// sensible defaults in NewService.
type Config struct {
	TempDir       string
	DBPath        string
	AppVersion    string
	GitHubRepo    string
	PreviewPoints int

	Logger   Logger
	Settings Settings
	Codec    Codec
	Player   transport.Player
	Display  transport.Display
	Prompt   codec.PromptFunc
}

// Option mutates the service configuration.
type Option func(*Config)

func WithTempDir(dir string) Option {
	return func(c *Config) { c.TempDir = dir }
}

func WithDBPath(path string) Option {
	return func(c *Config) { c.DBPath = path }
}

func WithAppVersion(version string) Option {
	return func(c *Config) { c.AppVersion = version }
}

func WithGitHubRepo(repo string) Option {
	return func(c *Config) { c.GitHubRepo = repo }
}

func WithPreviewPoints(n int) Option {
	return func(c *Config) { c.PreviewPoints = n }
}

func WithLogger(log Logger) Option {
	return func(c *Config) { c.Logger = log }
}

func WithSettings(settings Settings) Option {
	return func(c *Config) { c.Settings = settings }
}

func WithCodec(cd Codec) Option {
	return func(c *Config) { c.Codec = cd }
}

func WithPlayer(p transport.Player) Option {
	return func(c *Config) { c.Player = p }
}

func WithDisplay(d transport.Display) Option {
	return func(c *Config) { c.Display = d }
}

func WithEncoderPrompt(fn codec.PromptFunc) Option {
	return func(c *Config) { c.Prompt = fn }
}

func defaultConfig() *Config {
	return &Config{
		TempDir:       os.TempDir(),
		DBPath:        storage.DefaultDBFile,
		AppVersion:    "1.0",
		GitHubRepo:    "trackstitch/trackstitch",
		PreviewPoints: 4096,
	}
}
