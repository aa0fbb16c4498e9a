package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// Clock is a swappable source of "now", defaulting to RealTimestampGenerator.
// The Poller and the Auditor do not read it: the Poller calls time.Now
// directly and the Auditor carries its own now function.
var Clock TimestampGenerator = RealTimestampGenerator{}

// DefaultPollIntervalSeconds is the Camera Poller's default tick (§4.2).
const DefaultPollIntervalSeconds = 60

// GroupProximitySeconds is the §3 rule: recordings whose gap is within this
// many seconds belong to the same group.
const GroupProximitySeconds = 5

// CameraConfig holds the collaborator-facing connection details for the
// camera. The core never speaks a vendor protocol directly; these values are
// handed to whichever camera.Camera implementation is wired at startup.
type CameraConfig struct {
	Type      string
	IPAddress string
	Username  string
	Password  string
}

// YoutubePlaylistConfig mirrors one of the `[youtube.playlist.processed]` /
// `[youtube.playlist.raw]` sections the Python original reads in
// upload_processor.py: a name template, a description, and a privacy status
// applied when a new playlist has to be created.
type YoutubePlaylistConfig struct {
	NameFormat    string
	Description   string
	PrivacyStatus string
}

type YoutubeConfig struct {
	Processed YoutubePlaylistConfig
	Raw       YoutubePlaylistConfig
}

// NTFYConfig points at the notification collaborator (§6) used for
// human-input prompts and the supplemented game-start/game-end events.
type NTFYConfig struct {
	BaseURL string
	Topic   string
}

// BackupConfig points at an optional S3-compatible bucket mirroring
// combined/trimmed artifacts after a successful upload. An empty Bucket
// disables the mirror entirely.
type BackupConfig struct {
	Bucket string
	Region string
	Prefix string
}

// AdminConfig points at the read-only operator HTTP surface (§7): liveness,
// per-group state inspection, and Prometheus scraping.
type AdminConfig struct {
	Port int
}

type Config struct {
	StoragePath         string
	MyTeamName          string
	PollIntervalSeconds int
	Camera              CameraConfig
	NTFY                NTFYConfig
	Youtube             YoutubeConfig
	Backup              BackupConfig
	Admin               AdminConfig
}

// configSearchPaths returns the candidate locations for config.ini, in the
// order the original __main__.py probes them: current directory, the
// directory containing the running binary, that directory's parent, and a
// ./video_grouper/ subdirectory of the current directory.
func configSearchPaths() ([]string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locating binary: %w", err)
	}
	binDir := filepath.Dir(exe)

	return []string{
		filepath.Join(cwd, "config.ini"),
		filepath.Join(binDir, "config.ini"),
		filepath.Join(filepath.Dir(binDir), "config.ini"),
		filepath.Join(cwd, "video_grouper", "config.ini"),
	}, nil
}

// Find locates config.ini by searching configSearchPaths in order, returning
// the first path that exists. Exit code 1 (§6) is the caller's
// responsibility when the error here is surfaced.
func Find() (string, error) {
	paths, err := configSearchPaths()
	if err != nil {
		return "", err
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("config.ini not found, looked in: %v", paths)
}

// Load parses the config.ini at path into a Config. Section and key names
// match the Python original's configparser sections (CAMERA, APP, STORAGE,
// youtube.playlist.processed, youtube.playlist.raw, NTFY).
func Load(path string) (Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return Config{}, fmt.Errorf("loading %s: %w", path, err)
	}

	var cfg Config
	camera := f.Section("CAMERA")
	cfg.Camera = CameraConfig{
		Type:      camera.Key("type").MustString("dahua"),
		IPAddress: camera.Key("ip_address").String(),
		Username:  camera.Key("username").String(),
		Password:  camera.Key("password").String(),
	}

	storage := f.Section("STORAGE")
	cfg.StoragePath = storage.Key("path").String()
	if cfg.StoragePath == "" {
		// fall back to the older APP.video_storage_path key kept for
		// compatibility with config files written before STORAGE existed.
		cfg.StoragePath = f.Section("APP").Key("video_storage_path").String()
	}
	if cfg.StoragePath == "" {
		return Config{}, fmt.Errorf("config.ini: no storage path configured (STORAGE.path or APP.video_storage_path)")
	}

	app := f.Section("APP")
	cfg.MyTeamName = app.Key("team_name").String()
	cfg.PollIntervalSeconds = app.Key("check_interval_seconds").MustInt(DefaultPollIntervalSeconds)

	ntfy := f.Section("NTFY")
	cfg.NTFY = NTFYConfig{
		BaseURL: ntfy.Key("base_url").String(),
		Topic:   ntfy.Key("topic").String(),
	}

	cfg.Youtube = YoutubeConfig{
		Processed: loadPlaylistSection(f, "youtube.playlist.processed", "{my_team_name}", "Processed videos"),
		Raw:       loadPlaylistSection(f, "youtube.playlist.raw", "{my_team_name} - Full Field", "Raw videos"),
	}

	backup := f.Section("BACKUP")
	cfg.Backup = BackupConfig{
		Bucket: backup.Key("s3_bucket").String(),
		Region: backup.Key("s3_region").MustString("us-east-1"),
		Prefix: backup.Key("s3_prefix").String(),
	}

	admin := f.Section("ADMIN")
	cfg.Admin = AdminConfig{
		Port: admin.Key("port").MustInt(4949),
	}

	return cfg, nil
}

func loadPlaylistSection(f *ini.File, name, defaultFormat, defaultDescription string) YoutubePlaylistConfig {
	sec := f.Section(name)
	return YoutubePlaylistConfig{
		NameFormat:    sec.Key("name_format").MustString(defaultFormat),
		Description:   sec.Key("description").MustString(defaultDescription),
		PrivacyStatus: sec.Key("privacy_status").MustString("unlisted"),
	}
}
