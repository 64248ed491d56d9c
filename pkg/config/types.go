package config

// Config is the root configuration structure for the modsort CLI.
type Config struct {
	Log  LogConfig  `description:"Logging configuration" koanf:"log"`
	Game GameConfig `description:"Game install configuration" koanf:"game"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level string `description:"Log level: trace | debug | info | warn | error" koanf:"level"`
}

// GameConfig describes the game install to operate on.
type GameConfig struct {
	Type      string `description:"Game type (e.g. skyrimse, fallout4, starfield)" koanf:"type" validate:"required"`
	Path      string `description:"Game install directory" koanf:"path" validate:"required"`
	LocalPath string `description:"Local application data directory holding the load order" koanf:"local_path"`

	Masterlist        string `description:"Masterlist document path" koanf:"masterlist"`
	MasterlistPrelude string `description:"Masterlist prelude document path" koanf:"masterlist_prelude"`
	Userlist          string `description:"Userlist document path" koanf:"userlist"`
}
