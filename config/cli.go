package config

// Cli is a holder for process-flag values, kept apart from the Config loaded
// from config.ini the way the teacher's config.Cli struct is.
// cmd/video-grouper does not populate it: it reads its -config and -version
// flags into local variables.
type Cli struct {
	ConfigPath string
	AdminAddr  string
	Verbosity  int
}
